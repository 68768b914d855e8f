package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, req Request) (*Result, error)

func (f runnerFunc) Run(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }

func TestSimulatorDefaults(t *testing.T) {
	t.Parallel()

	s := NewSimulator(nil, nil)
	st := s.Snapshot()
	assert.Equal(t, DefaultRequest(), st.Params)
	assert.False(t, st.Running)
	assert.Nil(t, st.Result)
	assert.Empty(t, st.Err)
}

func TestSimulatorRunSuccess(t *testing.T) {
	t.Parallel()

	var sent Request
	s := NewSimulator(runnerFunc(func(_ context.Context, req Request) (*Result, error) {
		sent = req
		return &Result{Success: true, Market: req.Market, Metrics: Metrics{TotalReturn: 12.5}}, nil
	}), nil)

	require.True(t, s.SetMarket("krw-xrp"))
	s.SetDays(365)
	s.SetCapital(5_000_000)
	s.SetUseAPI(true)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, Request{Market: "KRW-XRP", Days: 365, InitialCapital: 5_000_000, UseAPI: true}, sent)

	st := s.Snapshot()
	require.NotNil(t, st.Result)
	assert.Equal(t, "KRW-XRP", st.Result.Market)
	assert.InDelta(t, 12.5, st.Result.Metrics.TotalReturn, 1e-9)
	assert.Empty(t, st.Err)
	assert.False(t, st.Running)
}

func TestSimulatorRunFailureUsesFixedMessage(t *testing.T) {
	t.Parallel()

	calls := 0
	s := NewSimulator(runnerFunc(func(context.Context, Request) (*Result, error) {
		calls++
		if calls == 1 {
			return &Result{Success: true}, nil
		}
		return nil, errors.New("dial tcp: connection refused")
	}), nil)

	require.NoError(t, s.Run(context.Background()))
	require.NotNil(t, s.Snapshot().Result)

	require.Error(t, s.Run(context.Background()))
	st := s.Snapshot()
	assert.Equal(t, MsgRunFailed, st.Err)
	assert.Nil(t, st.Result, "previous result is cleared when a run starts")
	assert.Equal(t, 2, calls, "no retry")
}

func TestSimulatorRunClearsPreviousError(t *testing.T) {
	t.Parallel()

	fail := true
	s := NewSimulator(runnerFunc(func(context.Context, Request) (*Result, error) {
		if fail {
			return nil, ErrRunFailed
		}
		return &Result{Success: true}, nil
	}), nil)

	require.Error(t, s.Run(context.Background()))
	assert.Equal(t, MsgRunFailed, s.Snapshot().Err)

	fail = false
	require.NoError(t, s.Run(context.Background()))
	assert.Empty(t, s.Snapshot().Err)
}

func TestSimulatorRejectsInvalidParams(t *testing.T) {
	t.Parallel()

	called := false
	s := NewSimulator(runnerFunc(func(context.Context, Request) (*Result, error) {
		called = true
		return &Result{}, nil
	}), nil)

	s.SetDays(10)
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, s.Snapshot().Err, "days must be between")

	s.SetDays(100)
	s.SetCapital(500_000)
	require.Error(t, s.Run(context.Background()))
	assert.Contains(t, s.Snapshot().Err, "initial_capital")
	assert.False(t, called)
}

func TestSimulatorRunningWhileInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	s := NewSimulator(runnerFunc(func(context.Context, Request) (*Result, error) {
		close(started)
		<-release
		return &Result{Success: true}, nil
	}), nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	<-started
	assert.True(t, s.Snapshot().Running)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().Running)
}

func TestSimulatorMarketSelection(t *testing.T) {
	t.Parallel()

	s := NewSimulator(nil, nil)
	assert.False(t, s.SetMarket("KRW-DOGE"))
	assert.Equal(t, "KRW-BTC", s.Snapshot().Params.Market)

	s.CycleMarket()
	assert.Equal(t, "KRW-ETH", s.Snapshot().Params.Market)

	require.True(t, s.SetMarket("KRW-BCH"))
	s.CycleMarket()
	assert.Equal(t, "KRW-BTC", s.Snapshot().Params.Market, "cycling wraps around")
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultRequest().Validate())

	r := DefaultRequest()
	r.Days = MaxDays
	assert.NoError(t, r.Validate())
	r.Days = MaxDays + 1
	assert.Error(t, r.Validate())

	r = DefaultRequest()
	r.InitialCapital = MinCapital
	assert.NoError(t, r.Validate())

	r = DefaultRequest()
	r.Market = "BTC-USD"
	assert.ErrorContains(t, r.Validate(), "unknown market")
}
