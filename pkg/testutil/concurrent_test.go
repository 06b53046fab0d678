package testutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"caremonitor/pkg/platform/sentinel"
)

func TestRunConcurrent(t *testing.T) {
	result := RunConcurrent(9, func(idx int) error {
		switch idx % 3 {
		case 0:
			return nil
		case 1:
			return fmt.Errorf("save: %w", sentinel.ErrUnavailable)
		default:
			return errors.New("boom")
		}
	})

	assert.Equal(t, int32(3), result.Successes)
	assert.Equal(t, int32(3), result.Unavailable)
	assert.Equal(t, int32(3), result.Errors)
	assert.Equal(t, int32(9), result.Total())
}
