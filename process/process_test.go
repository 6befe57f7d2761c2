package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethod_Valid(t *testing.T) {
	tests := []struct {
		method   Method
		expected bool
	}{
		{MethodRaw, true},
		{MethodMarkdown, true},
		{MethodReadability, true},
		{Method(""), false},
		{Method("html"), false},
		{Method("RAW"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.method.Valid())
		})
	}
}

func TestRaw_Process_Identity(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<html><body><script>alert(1)</script></body></html>",
		"日本語 and emoji ☂",
	}

	for _, in := range inputs {
		out, err := Raw{}.Process(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}
