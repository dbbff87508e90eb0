package sync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config", fmt.Errorf("%w: bad flag", ErrConfig), ExitUsage},
		{"sync root", fmt.Errorf("%w: /nope", ErrSyncRoot), ExitSyncRoot},
		{"precondition", fmt.Errorf("%w: dirty", ErrPrecondition), ExitPrecondition},
		{"locked", fmt.Errorf("%w", ErrLocked), ExitPrecondition},
		{"unexpected", errors.New("disk on fire"), ExitRuntime},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
