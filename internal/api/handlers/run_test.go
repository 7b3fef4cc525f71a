package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsedSecondsZeroForNeverStartedRun(t *testing.T) {
	assert.Equal(t, 0, elapsedSeconds(time.Time{}, time.Now()))
}

func TestElapsedSecondsForStartedRun(t *testing.T) {
	start := time.Now()
	end := start.Add(42 * time.Second)

	assert.Equal(t, 42, elapsedSeconds(start, end))
}
