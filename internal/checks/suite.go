package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spboyer/tabcheck/internal/model"
)

// Status summarises one check outcome.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// Suite is an ordered list of checks run against the same inputs.
type Suite struct {
	Name   string
	Checks []Check
}

// EventType distinguishes progress events.
type EventType string

const (
	EventCheckStart    EventType = "check_start"
	EventCheckComplete EventType = "check_complete"
)

// ProgressEvent reports suite progress to RunOptions.Progress.
type ProgressEvent struct {
	EventType   EventType
	CheckName   string
	CheckNum    int
	TotalChecks int
	Status      Status
	Duration    time.Duration
}

// RunOptions tunes Suite.Run.
type RunOptions struct {
	// Workers is the number of checks run at once. Values below 1 mean 1.
	Workers int
	// Progress, when set, is called for every event. Calls are serialised.
	Progress func(ProgressEvent)
}

// CheckOutcome is the result of one check within a suite run.
type CheckOutcome struct {
	Check      string            `json:"check"`
	Header     string            `json:"header,omitempty"`
	Status     Status            `json:"status"`
	Result     *CheckResult      `json:"-"`
	Conditions []ConditionResult `json:"conditions,omitempty"`
	Err        error             `json:"-"`
	Duration   time.Duration     `json:"duration_ns"`
}

// SuiteResult holds one CheckOutcome per suite check, in suite order.
type SuiteResult struct {
	RunID     string         `json:"run_id"`
	Suite     string         `json:"suite"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration_ns"`
	Outcomes  []CheckOutcome `json:"outcomes"`
}

// Count returns the number of outcomes with status s.
func (r *SuiteResult) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Passed reports whether no check failed or errored. Warnings pass.
func (r *SuiteResult) Passed() bool {
	return r.Count(StatusFailed) == 0 && r.Count(StatusError) == 0
}

// Run executes every check against input and m and evaluates its conditions.
// A failing check is recorded on its outcome and never stops the others. The
// returned error is non-nil only when ctx is cancelled.
func (s *Suite) Run(ctx context.Context, input any, m model.Model, opts RunOptions) (*SuiteResult, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	res := &SuiteResult{
		RunID:     uuid.NewString(),
		Suite:     s.Name,
		StartedAt: time.Now(),
		Outcomes:  make([]CheckOutcome, len(s.Checks)),
	}
	slog.Debug("Running suite", "suite", s.Name, "run_id", res.RunID, "checks", len(s.Checks), "workers", workers)

	var mu sync.Mutex
	notify := func(ev ProgressEvent) {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		opts.Progress(ev)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range s.Checks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			notify(ProgressEvent{EventType: EventCheckStart, CheckName: c.Name(), CheckNum: i + 1, TotalChecks: len(s.Checks)})

			outcome := runOne(c, input, m)
			res.Outcomes[i] = outcome

			notify(ProgressEvent{
				EventType:   EventCheckComplete,
				CheckName:   c.Name(),
				CheckNum:    i + 1,
				TotalChecks: len(s.Checks),
				Status:      outcome.Status,
				Duration:    outcome.Duration,
			})
			return nil
		})
	}
	err := g.Wait()
	res.Duration = time.Since(res.StartedAt)
	if err != nil {
		return res, fmt.Errorf("suite %q interrupted: %w", s.Name, err)
	}
	return res, nil
}

func runOne(c Check, input any, m model.Model) CheckOutcome {
	start := time.Now()
	outcome := CheckOutcome{Check: c.Name()}

	result, err := safeRun(c, input, m)
	if err != nil {
		slog.Debug("Check errored", "check", c.Name(), "error", err)
		outcome.Status, outcome.Err = StatusError, err
		outcome.Duration = time.Since(start)
		return outcome
	}
	outcome.Result = result
	outcome.Header = result.Header

	conds, err := c.ConditionsDecision(result)
	outcome.Conditions = conds
	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.Status, outcome.Err = StatusError, err
		return outcome
	}
	outcome.Status = statusOf(conds)
	return outcome
}

func safeRun(c Check, input any, m model.Model) (result *CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check %s panicked: %v", c.Name(), r)
		}
	}()
	result, err = c.Run(input, m)
	if err == nil && result == nil {
		err = errors.New("check returned no result")
	}
	return result, err
}

func statusOf(conds []ConditionResult) Status {
	status := StatusPassed
	for _, r := range conds {
		if r.IsPass {
			continue
		}
		if r.Category == CategoryWarn {
			status = StatusWarning
			continue
		}
		return StatusFailed
	}
	return status
}
