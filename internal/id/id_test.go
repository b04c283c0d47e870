package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatExpenseID(t *testing.T) {
	tests := []struct {
		year, month, seq int
		want             string
	}{
		{2026, 2, 1, "2026-02-001"},
		{2025, 12, 99, "2025-12-099"},
		{2026, 1, 1234, "2026-01-1234"},
	}
	for _, tt := range tests {
		got := FormatExpenseID(tt.year, tt.month, tt.seq)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseExpenseID(t *testing.T) {
	tests := []struct {
		input               string
		wantYear, wantMonth int
		wantSeq             int
	}{
		{"2026-02-001", 2026, 2, 1},
		{"2025-12-099", 2025, 12, 99},
		{"2026-01-1234", 2026, 1, 1234},
	}
	for _, tt := range tests {
		year, month, seq, err := ParseExpenseID(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantYear, year)
		assert.Equal(t, tt.wantMonth, month)
		assert.Equal(t, tt.wantSeq, seq)
	}
}

func TestParseExpenseID_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-valid",
		"2026-02",
		"xxxx-02-001",
		"2026-13-001",
		"2026-02-000",
		"TX-103000",
	}
	for _, input := range badInputs {
		_, _, _, err := ParseExpenseID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	y, m, s, err := ParseExpenseID(FormatExpenseID(2026, 7, 42))
	require.NoError(t, err)
	assert.Equal(t, []int{2026, 7, 42}, []int{y, m, s})
}
