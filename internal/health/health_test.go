package health

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
)

func TestProbe_TempDir(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
	default:
		t.Skip("statfs not supported")
	}

	est, err := Probe(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, est.Quota, uint64(0))
	assert.LessOrEqual(t, est.Used, est.Quota)
	assert.GreaterOrEqual(t, est.Percent(), 0.0)
	assert.LessOrEqual(t, est.Percent(), 100.0)
}

func TestProbe_MissingPath(t *testing.T) {
	_, err := Probe(context.Background(), "/definitely/not/here/osp")
	require.Error(t, err)
}

func TestEstimate_PercentAndString(t *testing.T) {
	assert.Equal(t, 0.0, Estimate{}.Percent())

	e := Estimate{Quota: 1 << 30, Used: 1 << 29}
	assert.InDelta(t, 50.0, e.Percent(), 0.001)
	assert.Equal(t, "512 MiB of 1.0 GiB used (50.0%)", e.String())
}

type sequence struct {
	mu   sync.Mutex
	vals []Estimate
	errs []error
	n    int
}

func (s *sequence) probe(context.Context, string) (Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.n
	s.n++
	if i >= len(s.vals) {
		i = len(s.vals) - 1
	}
	return s.vals[i], s.errs[i]
}

func TestPoller_KeepsLastGoodEstimate(t *testing.T) {
	seq := &sequence{
		vals: []Estimate{{Quota: 100, Used: 10}, {}},
		errs: []error{nil, errors.New("statfs: EIO")},
	}
	p := NewPoller("/data", seq.probe, time.Second, 90, clock.Fake(time.Now()), logging.Nop())

	_, ok := p.Latest()
	assert.False(t, ok)

	p.Poll(context.Background())
	p.Poll(context.Background())

	est, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(10), est.Used)
}

func TestPoller_WarnsOnceAboveThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	seq := &sequence{
		vals: []Estimate{{Quota: 100, Used: 95}, {Quota: 100, Used: 96}, {Quota: 100, Used: 50}, {Quota: 100, Used: 91}},
		errs: []error{nil, nil, nil, nil},
	}
	p := NewPoller("/data", seq.probe, time.Second, 90, clock.Fake(time.Now()), logger)

	for i := 0; i < 4; i++ {
		p.Poll(context.Background())
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "storage nearly full"))
}

func TestPoller_RunTicksUntilCancelled(t *testing.T) {
	clk := clock.Fake(time.Now())
	seq := &sequence{
		vals: []Estimate{{Quota: 100, Used: 1}},
		errs: []error{nil},
	}
	p := NewPoller("/data", seq.probe, time.Second, 0, clk, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := p.Latest()
		return ok && clk.Pending() > 0
	}, time.Second, time.Millisecond)

	for i := 0; i < 3; i++ {
		clk.Advance(time.Second)
		want := i + 2
		require.Eventually(t, func() bool {
			seq.mu.Lock()
			defer seq.mu.Unlock()
			return seq.n >= want
		}, time.Second, time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
