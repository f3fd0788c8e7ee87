package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLines(t *testing.T) {
	t.Parallel()

	var got []string
	err := RunLines(strings.NewReader("inq\n  at \r\n\nlog=no"), func(line string) { got = append(got, line) })
	require.NoError(t, err)
	assert.Equal(t, []string{"inq", "at", "", "log=no"}, got)
}
