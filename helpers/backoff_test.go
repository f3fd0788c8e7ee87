package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	b := &Backoff{Min: 100 * time.Millisecond, Max: time.Second, K: 2}
	assert.Equal(t, time.Duration(0), b.Next())
	expect := []time.Duration{100, 200, 400, 800, 1000, 1000}
	for i, e := range expect {
		assert.Equal(t, e*time.Millisecond, b.Failure(), "step=%d", i)
	}
	b.Reset()
	assert.Equal(t, time.Duration(0), b.Next())
	assert.Equal(t, 100*time.Millisecond, b.Failure())
}

func TestBackoffRes(t *testing.T) {
	t.Parallel()

	b := &Backoff{Min: 1500 * time.Microsecond, K: 1.5, Res: time.Millisecond}
	assert.Equal(t, 1*time.Millisecond, b.Failure())
}
