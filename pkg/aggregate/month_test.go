package aggregate

import (
	"strings"
	"testing"
)

func TestMonthBucket(t *testing.T) {
	tests := []struct {
		recordID string
		want     string
	}{
		// 0x5360c040 = 1398849600 → 2014-04-30
		{"5360c0400000000000000000", "201404"},
		// epoch
		{"000000000000000000000000", "197001"},
		// 0xffffffff = 4294967295 → 2106-02-07
		{"ffffffff0000000000000000", "210602"},
		// only the leading 8 characters matter
		{"5360c040ffffffffffffffff", "201404"},
	}

	for _, tt := range tests {
		got, err := MonthBucket(tt.recordID)
		if err != nil {
			t.Errorf("MonthBucket(%q) error: %v", tt.recordID, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MonthBucket(%q) = %q, want %q", tt.recordID, got, tt.want)
		}
	}
}

func TestMonthBucketIgnoresSaveDate(t *testing.T) {
	// Two ids with the same timestamp prefix and different tails land in
	// the same bucket; the save date field is never consulted.
	a, err := MonthBucket("5360c040aaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatal(err)
	}
	b, err := MonthBucket("5360c040bbbbbbbbbbbbbbbb")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("buckets differ for identical prefixes: %q vs %q", a, b)
	}
}

func TestMonthBucketErrors(t *testing.T) {
	tests := []struct {
		recordID string
		wantErr  string
	}{
		{"", "too short"},
		{"5360c0", "too short"},
		{"zzzzzzzz0000000000000000", "no hex timestamp prefix"},
	}

	for _, tt := range tests {
		_, err := MonthBucket(tt.recordID)
		if err == nil {
			t.Errorf("MonthBucket(%q) expected error", tt.recordID)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("MonthBucket(%q) error %q does not contain %q", tt.recordID, err.Error(), tt.wantErr)
		}
	}
}
