package services

import (
	"strings"

	"github.com/lunchline/pos-server/models"
)

// AccountRefKind says how a raw account token should be resolved. The
// decision is made exactly once, when the token is parsed; nothing
// downstream re-inspects the raw string.
type AccountRefKind int

const (
	AccountReal AccountRefKind = iota
	AccountCash
)

// AccountRef is a parsed account token.
type AccountRef struct {
	Kind AccountRefKind
	Raw  string
}

// ParseAccountRef classifies a raw token. Any token starting with the
// cash code, in any letter case, is an anonymous cash buyer; everything
// else is treated as a roster account number.
func ParseAccountRef(raw string) AccountRef {
	token := strings.TrimSpace(raw)
	if IsCashToken(token) {
		return AccountRef{Kind: AccountCash, Raw: token}
	}
	return AccountRef{Kind: AccountReal, Raw: token}
}

// AccountHints are the register's own copies of roster fields, sent with
// each item so a sale survives the roster being stale on the server.
type AccountHints struct {
	FamilyID   int64
	SchoolCode string
}

// ResolvedAccount is the outcome of account resolution for one item.
// BestEffort marks rows recorded without a roster match; those keep the
// register's hints and stay linked to no customer.
type ResolvedAccount struct {
	CustomerID     *uint
	FamilyID       int64
	SchoolCode     string
	ApprovalMethod string
	ApprovalCode   string
	BestEffort     bool
}

// ResolveAccountFields combines a roster row with the register's hints.
// A nil customer never fails the item: an unknown account is recorded
// best-effort so the sale is not lost, and reconciliation happens later.
func ResolveAccountFields(cust *models.Customer, hints AccountHints) ResolvedAccount {
	if cust == nil {
		return ResolvedAccount{
			FamilyID:   hints.FamilyID,
			SchoolCode: hints.SchoolCode,
			BestEffort: true,
		}
	}

	id := cust.ID
	return ResolvedAccount{
		CustomerID:     &id,
		FamilyID:       cust.FamilyID,
		SchoolCode:     cust.SchoolCode,
		ApprovalMethod: cust.ApprovalMethod,
		ApprovalCode:   cust.ApprovalCode,
	}
}
