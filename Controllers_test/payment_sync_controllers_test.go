package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lunchline/pos-server/models"
)

func TestUploadPaymentsCheckMemo(t *testing.T) {
	db := openTestDB(t)
	router := newPOSRouter(db)
	seedUser(t, db, "cashier1", models.RoleCashier)
	student := seedStudent(t, db, "1001", 700)

	res := loginAs(t, router, "cashier1", "L", 10)

	withMemo := paymentItem("1-1-1", 1, "1001", 20.00)
	withMemo["method"] = "check"
	withMemo["memo"] = "Smith Family Lunch Deposit"
	withMemo["checkNo"] = "1042"

	memoFromCheckNo := paymentItem("1-1-2", 2, "1001", 15.00)
	memoFromCheckNo["method"] = "Check"
	memoFromCheckNo["checkNo"] = "1043"

	w := postJSON(t, router, "/sync/payments", res.Token, []interface{}{withMemo, memoFromCheckNo})
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseSyncResponse(t, w)
	assert.True(t, resp.Results[0].Success)
	assert.True(t, resp.Results[1].Success)

	// check memos carry "CHK " plus the first fourteen memo characters
	var payment models.Payment
	assert.NoError(t, db.Where("sync_key = ?", "1-1-1").First(&payment).Error)
	assert.Equal(t, models.PaymentCheck, payment.Method)
	assert.Equal(t, "CHK Smith Family L", payment.Memo)
	assert.Equal(t, "1042", payment.CheckNo)
	if assert.NotNil(t, payment.CustomerID) {
		assert.Equal(t, student.ID, *payment.CustomerID)
	}
	assert.Equal(t, int64(700), payment.FamilyID)

	// an empty memo falls back to the check number
	payment = models.Payment{} // First would otherwise filter on the stale id
	assert.NoError(t, db.Where("sync_key = ?", "1-1-2").First(&payment).Error)
	assert.Equal(t, models.PaymentCheck, payment.Method)
	assert.Equal(t, "CHK 1043", payment.Memo)

	// replay resolves to the original row
	w = postJSON(t, router, "/sync/payments", res.Token, []interface{}{withMemo})
	assert.Equal(t, http.StatusOK, w.Code)
	replay := parseSyncResponse(t, w)
	assert.True(t, replay.Results[0].Duplicate)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestCashPaymentMemoAndFamilyLinkage(t *testing.T) {
	db := openTestDB(t)
	router := newPOSRouter(db)
	seedUser(t, db, "cashier1", models.RoleCashier)
	cash := seedCashCustomer(t, db)

	res := loginAs(t, router, "cashier1", "L", 10)

	// three anonymous sales, families 990000..990002
	w := postJSON(t, router, "/sync/transactions", res.Token, []interface{}{
		saleItem("1-1-1", 1, "CASH"),
		saleItem("1-1-2", 2, "cash2"),
		saleItem("1-1-3", 3, "CASH"),
	})
	assert.Equal(t, http.StatusOK, w.Code)

	linked := paymentItem("1-1-10", 10, "CASH", 5.00)
	crossCase := paymentItem("1-1-11", 11, "CASH2", 3.00)
	unmatched := paymentItem("1-1-12", 12, "CASH9", 1.00)

	w = postJSON(t, router, "/sync/payments", res.Token, []interface{}{linked, crossCase, unmatched})
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseSyncResponse(t, w)
	for _, r := range resp.Results {
		assert.True(t, r.Success)
	}

	// a cash payment joins the most recent sale sharing its token
	var payment models.Payment
	assert.NoError(t, db.Where("sync_key = ?", "1-1-10").First(&payment).Error)
	assert.Equal(t, models.PaymentCash, payment.Method)
	assert.Equal(t, "L0 CASH", payment.Memo)
	assert.Equal(t, int64(990002), payment.FamilyID)
	if assert.NotNil(t, payment.CustomerID) {
		assert.Equal(t, cash.ID, *payment.CustomerID)
	}

	// token matching ignores letter case
	payment = models.Payment{}
	assert.NoError(t, db.Where("sync_key = ?", "1-1-11").First(&payment).Error)
	assert.Equal(t, int64(990001), payment.FamilyID)

	// no prior sale means no family linkage
	payment = models.Payment{}
	assert.NoError(t, db.Where("sync_key = ?", "1-1-12").First(&payment).Error)
	assert.Equal(t, int64(0), payment.FamilyID)
}

func TestPaymentMethodNormalization(t *testing.T) {
	db := openTestDB(t)
	router := newPOSRouter(db)
	seedUser(t, db, "cashier1", models.RoleCashier)
	seedStudent(t, db, "1001", 700)

	res := loginAs(t, router, "cashier1", "L", 10)

	upperCheck := paymentItem("1-1-1", 1, "1001", 10.00)
	upperCheck["method"] = "CHECK"
	upperCheck["checkNo"] = "77"

	unknownMethod := paymentItem("1-1-2", 2, "1001", 10.00)
	unknownMethod["method"] = "credit"

	defaulted := paymentItem("1-1-3", 3, "1001", 10.00)

	w := postJSON(t, router, "/sync/payments", res.Token, []interface{}{upperCheck, unknownMethod, defaulted})
	assert.Equal(t, http.StatusOK, w.Code)

	var payment models.Payment
	assert.NoError(t, db.Where("sync_key = ?", "1-1-1").First(&payment).Error)
	assert.Equal(t, models.PaymentCheck, payment.Method)

	// anything that is not a check is cash
	payment = models.Payment{}
	assert.NoError(t, db.Where("sync_key = ?", "1-1-2").First(&payment).Error)
	assert.Equal(t, models.PaymentCash, payment.Method)
	assert.Equal(t, "L0 CASH", payment.Memo)

	payment = models.Payment{}
	assert.NoError(t, db.Where("sync_key = ?", "1-1-3").First(&payment).Error)
	assert.Equal(t, models.PaymentCash, payment.Method)
}

func TestUploadPaymentsChecksAbilitiesAndHints(t *testing.T) {
	db := openTestDB(t)
	router := newPOSRouter(db)
	seedUser(t, db, "cashier1", models.RoleCashier)

	res := loginAs(t, router, "cashier1", "L", 10)

	offLine := paymentItem("1-1-1", 1, "1001", 10.00)
	offLine["lineNum"] = 12
	w := postJSON(t, router, "/sync/payments", res.Token, []interface{}{offLine})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// unknown account keeps the register's hints, same as a sale
	hinted := paymentItem("1-1-2", 2, "424242", 25.00)
	hinted["familyId"] = 808
	hinted["schoolCode"] = "OAK2"
	w = postJSON(t, router, "/sync/payments", res.Token, []interface{}{hinted})
	assert.Equal(t, http.StatusOK, w.Code)

	var payment models.Payment
	assert.NoError(t, db.Where("sync_key = ?", "1-1-2").First(&payment).Error)
	assert.Nil(t, payment.CustomerID)
	assert.Equal(t, int64(808), payment.FamilyID)
	assert.Equal(t, "OAK2", payment.SchoolCode)
}
