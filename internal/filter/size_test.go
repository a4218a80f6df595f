package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"100", 100},
		{"100B", 100},
		{"1K", 1024},
		{"1k", 1024},
		{"10M", 10 * 1024 * 1024},
		{"100MB", 100 * 1024 * 1024},
		{"2G", 2 * 1024 * 1024 * 1024},
		{"1T", 1024 * 1024 * 1024 * 1024},
		{"1.5K", 1536},
		{" 5M ", 5 * 1024 * 1024},
	} {
		got, err := ParseSize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "M", "abc", "12X"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}
