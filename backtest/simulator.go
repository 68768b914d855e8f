package backtest

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MsgRunFailed is shown for every failed run, whatever the cause.
const MsgRunFailed = "backtest run failed"

// SimState is a copy of the simulator form and its last outcome.
type SimState struct {
	Params  Request
	Running bool
	Result  *Result
	Err     string
}

// Simulator holds the simulator form and issues one request per Run.
// Running only tells the view to disable the run control; concurrent Runs
// are not refused and the last one to finish wins.
type Simulator struct {
	runner Runner
	logger *zap.Logger

	mu      sync.Mutex
	params  Request
	running int
	result  *Result
	err     string
}

func NewSimulator(r Runner, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		runner: r,
		logger: logger,
		params: DefaultRequest(),
	}
}

// Run clears the previous outcome, posts the current parameters and records
// the result or the failure message.
func (s *Simulator) Run(ctx context.Context) error {
	s.mu.Lock()
	req := s.params
	s.running++
	s.err = ""
	s.result = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}()

	if err := req.Validate(); err != nil {
		s.setErr(err.Error())
		return err
	}

	res, err := s.runner.Run(ctx, req)
	if err != nil {
		s.logger.Warn("backtest failed", zap.String("market", req.Market), zap.Error(err))
		s.setErr(MsgRunFailed)
		return err
	}

	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
	return nil
}

func (s *Simulator) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// SetMarket selects a market by code; unknown codes are rejected.
func (s *Simulator) SetMarket(code string) bool {
	m, ok := LookupMarket(code)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Market = m.Code
	return true
}

// CycleMarket moves to the next market in Markets, wrapping around.
func (s *Simulator) CycleMarket() {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Markets[0].Code
	for i, m := range Markets {
		if m.Code == s.params.Market {
			next = Markets[(i+1)%len(Markets)].Code
			break
		}
	}
	s.params.Market = next
}

func (s *Simulator) SetDays(days int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Days = days
}

func (s *Simulator) SetCapital(capital float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.InitialCapital = capital
}

func (s *Simulator) SetUseAPI(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.UseAPI = v
}

func (s *Simulator) Snapshot() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SimState{
		Params:  s.params,
		Running: s.running > 0,
		Err:     s.err,
	}
	if s.result != nil {
		r := *s.result
		st.Result = &r
	}
	return st
}
