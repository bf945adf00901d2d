package shared

import (
	"errors"
	"fmt"
	"testing"

	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil error":     {err: nil, want: ExitSuccess},
		"generic error": {err: errors.New("boom"), want: ExitFailure},
		"argument":      {err: clierrors.NewArgumentError("bad flag"), want: ExitInvalidArguments},
		"configuration": {err: clierrors.NewConfigError("bad config"), want: ExitInvalidConfig},
		"prerequisite":  {err: clierrors.NewPrerequisiteError("no appkit.json"), want: ExitMissingDependencies},
		"network":       {err: clierrors.NewNetworkError("offline"), want: ExitNetwork},
		"runtime":       {err: clierrors.NewRuntimeError("copy failed"), want: ExitFailure},
		"wrapped cli error": {
			err:  fmt.Errorf("update: %w", clierrors.NewNetworkError("offline")),
			want: ExitNetwork,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestExitCodeUniqueness(t *testing.T) {
	t.Parallel()

	codes := []int{
		ExitSuccess,
		ExitFailure,
		ExitInvalidConfig,
		ExitInvalidArguments,
		ExitMissingDependencies,
		ExitNetwork,
	}

	seen := make(map[int]bool)
	for _, code := range codes {
		assert.False(t, seen[code], "Duplicate exit code: %d", code)
		seen[code] = true
	}
}

func TestGroupConstantsUniqueness(t *testing.T) {
	t.Parallel()

	groups := []string{GroupProject, GroupTemplates, GroupConfiguration}

	seen := make(map[string]bool)
	for _, group := range groups {
		assert.False(t, seen[group], "Duplicate group constant: %s", group)
		seen[group] = true
	}
}
