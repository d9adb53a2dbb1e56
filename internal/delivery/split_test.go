package delivery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		maxChars int
		want     []string
	}{
		{
			name:     "fits in one part",
			content:  "short message",
			maxChars: 100,
			want:     []string{"short message"},
		},
		{
			name:     "no limit means no split",
			content:  strings.Repeat("x", 500),
			maxChars: 0,
			want:     []string{strings.Repeat("x", 500)},
		},
		{
			name:     "splits on newline boundary",
			content:  "first line\nsecond line",
			maxChars: 12,
			want:     []string{"first line", "second line"},
		},
		{
			name:     "packs lines while they fit",
			content:  "aa\nbb\ncc\ndd",
			maxChars: 5,
			want:     []string{"aa\nbb", "cc\ndd"},
		},
		{
			name:     "hard cuts an overlong line",
			content:  "abcdefghij",
			maxChars: 4,
			want:     []string{"abcd", "efgh", "ij"},
		},
		{
			name:     "overlong line between normal ones",
			content:  "ok\nabcdefghij\nend",
			maxChars: 4,
			want:     []string{"ok", "abcd", "efgh", "ij", "end"},
		},
		{
			name:     "empty content",
			content:  "",
			maxChars: 10,
			want:     []string{""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitMessage(tc.content, tc.maxChars))
		})
	}
}

func TestSplitMessage_RuneBudget(t *testing.T) {
	// Multi-byte runes count as one character each.
	content := strings.Repeat("日", 6)
	parts := SplitMessage(content, 4)

	assert.Equal(t, []string{strings.Repeat("日", 4), strings.Repeat("日", 2)}, parts)
}

func TestSplitMessage_NoPartExceedsBudget(t *testing.T) {
	content := "one\ntwo three four\nfive\n" + strings.Repeat("z", 30) + "\nsix"
	for _, part := range SplitMessage(content, 10) {
		assert.LessOrEqual(t, len([]rune(part)), 10, "part %q over budget", part)
	}
}
