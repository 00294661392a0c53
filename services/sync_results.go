package services

// Error codes surfaced to registers. Per-item codes mark expected
// business conditions; batch-level codes mean the whole flush failed
// and the register should retry it untouched.
const (
	CodeCashNotConfigured = "CASH_ACCOUNT_NOT_CONFIGURED"
	CodeStorageFailure    = "STORAGE_FAILURE"
)

// ItemResult reports the fate of one uploaded item. ServerID is null
// when the item failed; Duplicate marks a replay that resolved to the
// originally assigned id, NotFound a deletion whose target was already
// gone. Field names match what the registers parse, so they stay
// camelCase while the rest of the API speaks snake_case.
type ItemResult struct {
	LocalID      uint   `json:"localId"`
	SyncKey      string `json:"syncKey"`
	ServerID     *uint  `json:"serverId"`
	Success      bool   `json:"success"`
	Duplicate    bool   `json:"duplicate,omitempty"`
	NotFound     bool   `json:"notFound,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// SyncResult is the outcome of one accepted batch.
type SyncResult struct {
	Results                []ItemResult
	CashTransactionsFailed bool
}

func acceptedResult(localID uint, syncKey string, serverID uint) ItemResult {
	id := serverID
	return ItemResult{
		LocalID:  localID,
		SyncKey:  syncKey,
		ServerID: &id,
		Success:  true,
	}
}

func duplicateResult(localID uint, syncKey string, serverID uint) ItemResult {
	id := serverID
	return ItemResult{
		LocalID:   localID,
		SyncKey:   syncKey,
		ServerID:  &id,
		Success:   true,
		Duplicate: true,
	}
}

func notFoundResult(localID uint, syncKey string) ItemResult {
	return ItemResult{
		LocalID:  localID,
		SyncKey:  syncKey,
		Success:  true,
		NotFound: true,
	}
}

func failedResult(localID uint, syncKey, code, message string) ItemResult {
	return ItemResult{
		LocalID:      localID,
		SyncKey:      syncKey,
		Success:      false,
		ErrorCode:    code,
		ErrorMessage: message,
	}
}
