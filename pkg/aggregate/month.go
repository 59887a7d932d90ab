package aggregate

import (
	"fmt"
	"strconv"
	"time"
)

// MonthBucket derives the YYYYMM bucket for a version from its record id.
// The leading 8 hex characters of the id encode the record creation time as
// a big-endian Unix timestamp. The stored save date is deliberately not
// used: downstream consumers depend on the id-derived value.
func MonthBucket(recordID string) (string, error) {
	if len(recordID) < 8 {
		return "", fmt.Errorf("record id %q too short for a timestamp prefix", recordID)
	}
	secs, err := strconv.ParseUint(recordID[:8], 16, 32)
	if err != nil {
		return "", fmt.Errorf("record id %q has no hex timestamp prefix: %w", recordID, err)
	}
	return time.Unix(int64(secs), 0).UTC().Format("200601"), nil
}
