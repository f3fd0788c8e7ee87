package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectionString(t *testing.T) {
	t.Parallel()
	d := Detection{
		Identifier: []byte("ABC123456789"),
		ObservedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Source:     SourceInquiry,
	}
	assert.Equal(t, `source=inquiry id="ABC123456789" at=2024-05-06T07:08:09Z`, d.String())
	assert.Equal(t, "SourceKind(9)", SourceKind(9).String())
}
