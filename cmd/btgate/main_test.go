package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/btgate/cmd/btgate/subcmd"
)

func TestModules(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, m := range modules {
		require.NotNil(t, m.Main, m.Name)
		assert.False(t, seen[m.Name], "duplicate %s", m.Name)
		seen[m.Name] = true
	}
	m, err := subcmd.Parse("version", modules)
	require.NoError(t, err)
	assert.True(t, m.NoConfig)
	assert.Contains(t, usage(), "  at-cli     interactive Parani AT console\n")
}
