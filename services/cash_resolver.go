package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lunchline/pos-server/models"
	"gorm.io/gorm"
)

// CashCode is the account prefix registers use for anonymous cash
// buyers, and the account number of the single placeholder row every
// cash sale attaches to.
const CashCode = "CASH"

// DefaultCashFamilyFloor is where synthetic billing-group ids start,
// far above any real roster family.
const DefaultCashFamilyFloor = 990000

const allocRetryLimit = 100

// ErrCashNotConfigured means the placeholder account row is missing.
// This is an expected install-time condition, reported per item, never
// a reason to fail a whole batch.
var ErrCashNotConfigured = errors.New("cash placeholder account is not configured")

// IsCashToken reports whether a raw account token designates an
// anonymous cash buyer. The match is a case-insensitive prefix, so
// "CASH", "cash3" and "Cash12" all qualify.
func IsCashToken(token string) bool {
	return len(token) >= len(CashCode) && strings.EqualFold(token[:len(CashCode)], CashCode)
}

// cashState carries one batch's placeholder lookup so the query, hit or
// configuration failure, happens once per batch instead of once per
// item. It is passed down the batch loop explicitly.
type cashState struct {
	done     bool
	customer *models.Customer
	err      error
}

func resolveCashCustomer(tx *gorm.DB, state *cashState) (*models.Customer, error) {
	if !state.done {
		state.done = true
		var cust models.Customer
		err := tx.Where("account_no = ?", CashCode).First(&cust).Error
		switch {
		case err == nil:
			state.customer = &cust
		case errors.Is(err, gorm.ErrRecordNotFound):
			state.err = ErrCashNotConfigured
		default:
			state.err = err
		}
	}
	return state.customer, state.err
}

// FamilyAllocator hands out synthetic billing-group ids for anonymous
// cash sales, one per sale, scoped to (date, meal type). A per-scope
// mutex serializes allocation inside the process; the unique index on
// cash_families is the hard guarantee across processes, with a bounded
// bump-and-retry when another instance wins a slot.
type FamilyAllocator struct {
	Floor int64

	mu     sync.Mutex
	scopes map[string]*sync.Mutex
}

func NewFamilyAllocator(floor int64) *FamilyAllocator {
	if floor <= 0 {
		floor = DefaultCashFamilyFloor
	}
	return &FamilyAllocator{
		Floor:  floor,
		scopes: make(map[string]*sync.Mutex),
	}
}

// ScopeKey names one allocation scope.
func ScopeKey(date, mealType string) string {
	return date + "|" + mealType
}

func (a *FamilyAllocator) scopeLock(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.scopes[key]
	if !ok {
		lock = &sync.Mutex{}
		a.scopes[key] = lock
	}
	return lock
}

// LockScopes locks every scope a batch will allocate in, deduplicated
// and in sorted order so two batches can never deadlock each other.
// The returned func releases them in reverse order.
func (a *FamilyAllocator) LockScopes(scopes []string) func() {
	uniq := make([]string, 0, len(scopes))
	seen := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		if !seen[s] {
			seen[s] = true
			uniq = append(uniq, s)
		}
	}
	sort.Strings(uniq)

	locks := make([]*sync.Mutex, 0, len(uniq))
	for _, s := range uniq {
		locks = append(locks, a.scopeLock(s))
	}
	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// Next allocates the following id for a scope inside the caller's
// transaction. The caller must hold the scope lock. If the batch later
// rolls back the allocation row rolls back with it, so committed ids
// stay gap-free.
func (a *FamilyAllocator) Next(tx *gorm.DB, date, mealType string) (int64, error) {
	var current sql.NullInt64
	err := tx.Model(&models.CashFamily{}).
		Where("date = ? AND meal_type = ?", date, mealType).
		Select("MAX(family_id)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}

	next := a.Floor
	if current.Valid && current.Int64 >= a.Floor {
		next = current.Int64 + 1
	}

	for attempt := 0; attempt < allocRetryLimit; attempt++ {
		row := models.CashFamily{Date: date, MealType: mealType, FamilyID: next}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// another server instance holds this slot
				next++
				continue
			}
			return 0, err
		}
		return next, nil
	}

	return 0, fmt.Errorf("no free cash family id for %s %s after %d attempts", date, mealType, allocRetryLimit)
}

// nextCashFamily is the single entry point a sale uses: it resolves the
// placeholder account first, so an unconfigured cash account fails
// allocation with the exact same error the account lookup reports.
func nextCashFamily(tx *gorm.DB, alloc *FamilyAllocator, state *cashState, date, mealType string) (*models.Customer, int64, error) {
	cust, err := resolveCashCustomer(tx, state)
	if err != nil {
		return nil, 0, err
	}

	familyID, err := alloc.Next(tx, date, mealType)
	if err != nil {
		return nil, 0, err
	}

	return cust, familyID, nil
}
