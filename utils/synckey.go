package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSyncKeyLen bounds raw keys before they reach the database column.
const MaxSyncKeyLen = 64

// SyncKey is the client-generated identity of one offline-recorded item,
// rendered as "{lineLogID}-{sessionID}-{localID}". Registers mint these
// without asking the server for ids, so a replayed upload is recognizable
// by its key alone.
type SyncKey struct {
	LineLogID uint
	SessionID uint
	LocalID   uint
}

func (k SyncKey) String() string {
	return fmt.Sprintf("%d-%d-%d", k.LineLogID, k.SessionID, k.LocalID)
}

// ParseSyncKey splits a raw key into its three numeric parts. The format
// is fixed; anything else is a register bug worth rejecting early.
func ParseSyncKey(raw string) (SyncKey, error) {
	if raw == "" || len(raw) > MaxSyncKeyLen {
		return SyncKey{}, fmt.Errorf("sync key must be 1 to %d characters", MaxSyncKeyLen)
	}

	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return SyncKey{}, fmt.Errorf("sync key %q is not of the form lineLog-session-local", raw)
	}

	var nums [3]uint64
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return SyncKey{}, fmt.Errorf("sync key %q has a non-numeric part %q", raw, part)
		}
		nums[i] = n
	}

	return SyncKey{
		LineLogID: uint(nums[0]),
		SessionID: uint(nums[1]),
		LocalID:   uint(nums[2]),
	}, nil
}
