package subcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/log2"
)

func TestParse(t *testing.T) {
	t.Parallel()

	mods := []Mod{{Name: "run"}, {Name: "at-cli"}}
	m, err := Parse("at-cli", mods)
	require.NoError(t, err)
	assert.Equal(t, &mods[1], m)

	_, err = Parse("", mods)
	assert.Error(t, err)
	_, err = Parse("vmc", mods)
	assert.EqualError(t, err, "unknown command='vmc'")
	assert.Panics(t, func() { _, _ = Parse("x", []Mod{{}}) })
}

func TestWatchdogDisabled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	t.Setenv("NOTIFY_SOCKET", "")

	// must return right away without systemd
	Watchdog(alive.NewAlive(), log2.NewTest(t, log2.LDebug))
	assert.False(t, SdNotify("STATUS=test"))
}
