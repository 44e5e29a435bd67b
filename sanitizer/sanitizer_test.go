package sanitizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizerPolicies(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		policy   PolicyPreset
		expected string
	}{
		{
			name:     "raw passes through",
			input:    "hello\x00world\n",
			policy:   PolicyRaw,
			expected: "hello\x00world\n",
		},
		{
			name:     "entry escapes line breaks",
			input:    "line1\nline2\rline3",
			policy:   PolicyEntry,
			expected: `line1\nline2\rline3`,
		},
		{
			name:     "entry hex encodes null and controls",
			input:    "nul\x00bell\x07",
			policy:   PolicyEntry,
			expected: "nul<00>bell<07>",
		},
		{
			name:     "entry hex encodes unicode line separators",
			input:    "a\u2028b",
			policy:   PolicyEntry,
			expected: "a<e280a8>b",
		},
		{
			name:     "entry preserves utf8 and tabs-free text",
			input:    "Hello 世界 ✓ | ok",
			policy:   PolicyEntry,
			expected: "Hello 世界 ✓ | ok",
		},
		{
			name:     "category strips delimiters and controls",
			input:    "wi|fi\n\x01",
			policy:   PolicyCategory,
			expected: "wifi",
		},
		{
			name:     "config replaces line breaks with spaces",
			input:    "multi\nline\x00value",
			policy:   PolicyConfig,
			expected: "multi line value",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New().Policy(tc.policy)
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}

func TestSanitizerEntryNeverContainsSeparator(t *testing.T) {
	s := New().Policy(PolicyEntry)
	inputs := []string{"\n", "\n\n\n", "a\nb\nc", "\r\n", strings.Repeat("x\n", 50)}
	for _, in := range inputs {
		assert.NotContains(t, s.Sanitize(in), "\n")
		assert.NotContains(t, s.Sanitize(in), "\x00")
	}
}

func TestSanitizerCustomRules(t *testing.T) {
	t.Run("first matching rule wins", func(t *testing.T) {
		s := New().
			Rule(FilterLineBreak, TransformStrip).
			Rule(FilterControl, TransformHexEncode)
		assert.Equal(t, "ab<07>", s.Sanitize("a\nb\x07"))
	})

	t.Run("append variant writes into destination", func(t *testing.T) {
		s := New().Rule(FilterFieldDelimiter, TransformSpace)
		dst := []byte("prefix:")
		dst = s.AppendSanitized(dst, "a|b")
		assert.Equal(t, "prefix:a b", string(dst))
	})

	t.Run("limited append cuts at the limit", func(t *testing.T) {
		s := New().Policy(PolicyEntry)
		dst := make([]byte, 0, 8)
		dst = s.AppendLimited(dst, "ab\x00cdefgh", 6)
		assert.Equal(t, "ab<00>", string(dst))

		dst = s.AppendLimited(dst[:0], "a\nbcdef", 2)
		assert.Equal(t, "a", string(dst), "escape sequence dropped whole")

		dst = s.AppendLimited(dst[:0], "ééé", 5)
		assert.Equal(t, "éé", string(dst), "multi-byte rune never split")
		assert.True(t, utf8.Valid(dst))
	})

	t.Run("clean input returned unchanged", func(t *testing.T) {
		s := New().Policy(PolicyEntry)
		in := "nothing to do"
		assert.Equal(t, in, s.Sanitize(in))
	})
}

func BenchmarkSanitizer(b *testing.B) {
	input := strings.Repeat("normal text\x00\n\t", 100)

	benchmarks := []struct {
		name   string
		policy PolicyPreset
	}{
		{"Raw", PolicyRaw},
		{"Entry", PolicyEntry},
		{"Category", PolicyCategory},
		{"Config", PolicyConfig},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			s := New().Policy(bm.policy)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.Sanitize(input)
			}
		})
	}
}
