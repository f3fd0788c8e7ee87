package run

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/internal/gateway"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/log2"
)

type fakeSource struct {
	kind   types.SourceKind
	fail   error
	closed int32
}

func (f *fakeSource) Kind() types.SourceKind { return f.kind }
func (f *fakeSource) Close() error           { atomic.AddInt32(&f.closed, 1); return nil }
func (f *fakeSource) Run(a *alive.Alive) error {
	if f.fail != nil {
		return f.fail
	}
	<-a.StopChan()
	return nil
}

func TestServeFatalStopsAll(t *testing.T) {
	t.Parallel()

	_, g := state.NewContext(log2.NewTest(t, log2.LDebug))
	hb := &fakeSource{kind: types.SourceHeartbeat}
	inq := &fakeSource{kind: types.SourceInquiry, fail: fmt.Errorf("serial read timeout")}
	err := Serve(g, []gateway.Source{hb, inq})
	assert.EqualError(t, err, "source=inquiry: serial read timeout")
	assert.False(t, g.Alive.IsRunning())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hb.closed))
	assert.Equal(t, int32(1), atomic.LoadInt32(&inq.closed))
}

func TestServeStop(t *testing.T) {
	t.Parallel()

	_, g := state.NewContext(log2.NewTest(t, log2.LDebug))
	hb := &fakeSource{kind: types.SourceHeartbeat}
	pass := &fakeSource{kind: types.SourcePassive}
	errch := make(chan error, 1)
	go func() { errch <- Serve(g, []gateway.Source{hb, pass}) }()
	g.Alive.Stop()
	assert.NoError(t, <-errch)
	assert.Equal(t, int32(1), atomic.LoadInt32(&pass.closed))
}

func TestModNames(t *testing.T) {
	t.Parallel()

	names := []string{Mod.Name, HeartbeatMod.Name, InquiryMod.Name, PassiveMod.Name}
	assert.Equal(t, []string{"run", "heartbeat", "inquiry", "passive"}, names)
	assert.Contains(t, InquiryMod.Usage, "inquiry")
}
