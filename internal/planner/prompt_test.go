package planner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolePrompter(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	prompt := ConsolePrompter(strings.NewReader("y\nno\n"), &out)

	ok, err := confirm(prompt, "First?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = confirm(prompt, "Second?")
	require.NoError(t, err)
	assert.False(t, ok)

	// input exhausted: EOF means no
	ok, err = confirm(prompt, "Third?")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "First? [y/N]: Second? [y/N]: Third? [y/N]: ", out.String())
}

func TestConfirm_Answers(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		answer string
		want   bool
	}{
		"lower y":        {answer: "y", want: true},
		"upper Y":        {answer: "Y\n", want: true},
		"yes padded":     {answer: "  yes  ", want: true},
		"empty defaults": {answer: "", want: false},
		"n":              {answer: "n", want: false},
		"anything else":  {answer: "sure", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := confirm(func(string) (string, error) { return tt.answer, nil }, "q")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirm_NilPromptDeclines(t *testing.T) {
	t.Parallel()

	ok, err := confirm(nil, "q")
	require.NoError(t, err)
	assert.False(t, ok)
}
