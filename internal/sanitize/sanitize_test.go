package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text unchanged",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "control chars stripped",
			input:    "a\x00b\x07c",
			expected: "abc",
		},
		{
			name:     "newline and tab survive",
			input:    "a\nb\tc",
			expected: "a\nb\tc",
		},
		{
			name:     "space runs collapse to two",
			input:    "a      b",
			expected: "a  b",
		},
		{
			name:     "newline runs collapse to two",
			input:    "a\n\n\n\n\nb",
			expected: "a\n\nb",
		},
		{
			name:     "html entities unescaped",
			input:    "a &amp; b &lt;tag&gt;",
			expected: "a & b <tag>",
		},
		{
			name:     "runaway code fence capped",
			input:    "``````go\ncode\n``````",
			expected: "```go\ncode\n```",
		},
		{
			name:     "triple fence untouched",
			input:    "```go\ncode\n```",
			expected: "```go\ncode\n```",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  \n hello \n  ",
			expected: "hello",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestTextIsIdempotent(t *testing.T) {
	inputs := []string{
		"a      b\n\n\n\nc",
		"`````fence`````",
		"plain",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}
