package cleaner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestCleaner_Filter(t *testing.T) {
	c := New(domain.DefaultBlocklist())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only blank lines", "\n  \n\t\n", ""},
		{"trims lines", "  Dhaka  \r\n\tis here ", "Dhaka\nis here"},
		{"drops exact blocklist lines", "HSC 26\nঅপরিচিতা\nপ্রশ্ন\nSCHOOL", "অপরিচিতা"},
		{"blocklist match after trim", "   MINUTE   \nkept", "kept"},
		{"substring is not a match", "HSC 26 batch\nSCHOOLS", "HSC 26 batch\nSCHOOLS"},
		{"case sensitive", "school\nMinute", "school\nMinute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Filter(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleaner_EmptyBlocklist(t *testing.T) {
	c := New(nil)

	got, err := c.Filter(context.Background(), "HSC 26\n\nকবিতা")
	require.NoError(t, err)
	assert.Equal(t, "HSC 26\nকবিতা", got)
}

func TestCleaner_IgnoresBlankPhrases(t *testing.T) {
	c := New([]string{"", "  "})
	assert.False(t, c.Blocked(""))
	assert.Equal(t, "cleaner", c.Name())
}

func TestCleaner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Filter(ctx, "a\nb")
	assert.ErrorIs(t, err, context.Canceled)
}
