package services

import (
	"testing"

	"github.com/lunchline/pos-server/models"
)

func TestParseAccountRef(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind AccountRefKind
		wantRaw  string
	}{
		{"1001", AccountReal, "1001"},
		{" 1001 ", AccountReal, "1001"},
		{"CASH", AccountCash, "CASH"},
		{"cash7", AccountCash, "cash7"},
		{" Cash 3 ", AccountCash, "Cash 3"},
		{"", AccountReal, ""},
	}

	for _, tt := range tests {
		ref := ParseAccountRef(tt.raw)
		if ref.Kind != tt.wantKind || ref.Raw != tt.wantRaw {
			t.Errorf("ParseAccountRef(%q) = {%v %q}, want {%v %q}",
				tt.raw, ref.Kind, ref.Raw, tt.wantKind, tt.wantRaw)
		}
	}
}

func TestResolveAccountFieldsFromRoster(t *testing.T) {
	cust := &models.Customer{
		ID:             42,
		AccountNo:      "1001",
		FamilyID:       700,
		SchoolCode:     "ELM1",
		ApprovalMethod: "DC",
		ApprovalCode:   "A-9",
	}

	resolved := ResolveAccountFields(cust, AccountHints{FamilyID: 1, SchoolCode: "IGNORED"})
	if resolved.BestEffort {
		t.Error("roster match marked best effort")
	}
	if resolved.CustomerID == nil || *resolved.CustomerID != 42 {
		t.Errorf("CustomerID = %v, want 42", resolved.CustomerID)
	}
	// the server's roster outranks whatever the register remembered
	if resolved.FamilyID != 700 || resolved.SchoolCode != "ELM1" {
		t.Errorf("roster fields = %d %q, want 700 ELM1", resolved.FamilyID, resolved.SchoolCode)
	}
	if resolved.ApprovalMethod != "DC" || resolved.ApprovalCode != "A-9" {
		t.Errorf("approval fields = %q %q, want DC A-9", resolved.ApprovalMethod, resolved.ApprovalCode)
	}
}

func TestResolveAccountFieldsBestEffort(t *testing.T) {
	resolved := ResolveAccountFields(nil, AccountHints{FamilyID: 555, SchoolCode: "OAK2"})
	if !resolved.BestEffort {
		t.Error("missing roster row not marked best effort")
	}
	if resolved.CustomerID != nil {
		t.Errorf("CustomerID = %v, want nil", resolved.CustomerID)
	}
	if resolved.FamilyID != 555 || resolved.SchoolCode != "OAK2" {
		t.Errorf("hint fields = %d %q, want 555 OAK2", resolved.FamilyID, resolved.SchoolCode)
	}
	if resolved.ApprovalMethod != "" || resolved.ApprovalCode != "" {
		t.Error("best effort rows must not carry approval metadata")
	}
}
