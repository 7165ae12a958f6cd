package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/apictl/packages/assertions"
	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/abdul-hamid-achik/apictl/packages/core/template"
	"github.com/abdul-hamid-achik/apictl/packages/http"
	"github.com/abdul-hamid-achik/apictl/packages/response"
	"github.com/google/uuid"
)

// State tracks a test or step through its lifecycle.
type State int

const (
	StatePending State = iota
	StateRunning
	StatePassed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Runner executes tests and request lists against a configuration.
type Runner struct {
	client *http.Client
	cfg    *config.Config
}

type Option func(*Runner)

// WithClient replaces the default HTTP client, for callers that tuned
// timeouts or redirect policy.
func WithClient(c *http.Client) Option {
	return func(r *Runner) { r.client = c }
}

func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		client: http.NewClient(),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TestResult aggregates the outcome of one test run.
type TestResult struct {
	RunID       uuid.UUID
	Name        string
	Description string
	State       State
	FailReason  string
	Duration    time.Duration
	Steps       []*StepResult
}

// Passed reports whether the run reached a passing terminal state.
func (t *TestResult) Passed() bool {
	return t.State == StatePassed
}

// StepResult records one executed step. Steps after a failure keep
// StatePending since they never ran.
type StepResult struct {
	Name       string
	RequestID  string
	State      State
	Duration   time.Duration
	Response   *http.Response
	Assertions []*assertions.Result
	SQLAsserts []*SQLResult
	Err        error
}

// RunTest executes the named test. Steps run strictly in declaration
// order against a fresh response store; a failing step aborts the
// remainder because later steps may depend on state the failed step
// did not establish.
func (r *Runner) RunTest(ctx context.Context, name string, vars map[string]string) (*TestResult, error) {
	test, ok := r.cfg.Tests[name]
	if !ok {
		return nil, fmt.Errorf("test not found: %q", name)
	}

	// A request id may appear only once per run, it doubles as the
	// response store key.
	seen := make(map[string]bool, len(test.Steps))
	for _, step := range test.Steps {
		if seen[step.Request] {
			return nil, fmt.Errorf("test %q: request %q is used more than once", name, step.Request)
		}
		seen[step.Request] = true
	}

	result := &TestResult{
		RunID:       uuid.New(),
		Name:        name,
		Description: test.Description,
		State:       StateRunning,
		Steps:       make([]*StepResult, len(test.Steps)),
	}
	for i, step := range test.Steps {
		result.Steps[i] = &StepResult{
			Name:      stepName(step),
			RequestID: step.Request,
			State:     StatePending,
		}
	}

	start := time.Now()
	store := response.NewStore()
	resolver := template.NewResolver(vars, store)

	for i, step := range test.Steps {
		sr := result.Steps[i]
		sr.State = StateRunning
		r.runStep(ctx, step, sr, resolver, store)

		if sr.State == StateFailed {
			result.State = StateFailed
			result.FailReason = failReason(sr)
			break
		}
	}

	if result.State != StateFailed {
		result.State = StatePassed
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, step *config.Step, sr *StepResult, resolver *template.Resolver, store *response.Store) {
	start := time.Now()
	defer func() { sr.Duration = time.Since(start) }()

	def, ok := r.cfg.Requests[step.Request]
	if !ok {
		sr.fail(fmt.Errorf("request not found: %q", step.Request))
		return
	}

	req, err := http.BuildRequest(def, resolver.Resolve, r.cfg.BaseDir())
	if err != nil {
		sr.fail(err)
		return
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		sr.fail(fmt.Errorf("request %q: %w", step.Request, err))
		return
	}
	sr.Response = resp

	if err := store.Put(step.Request, resp); err != nil {
		sr.fail(err)
		return
	}

	sr.Assertions = assertions.EvaluateAll(resp, step.Asserts, assertions.WithBaseDir(r.cfg.BaseDir()))
	sr.SQLAsserts = r.runSQLAsserts(ctx, step.SQLAsserts, resolver)

	if assertions.AllPassed(sr.Assertions) && sqlAllPassed(sr.SQLAsserts) {
		sr.State = StatePassed
	} else {
		sr.State = StateFailed
	}
}

func (sr *StepResult) fail(err error) {
	sr.Err = err
	sr.State = StateFailed
}

func stepName(step *config.Step) string {
	if step.Name != "" {
		return step.Name
	}
	return step.Request
}

func failReason(sr *StepResult) string {
	if sr.Err != nil {
		return sr.Err.Error()
	}
	return fmt.Sprintf("step %q failed", sr.Name)
}

// RequestRun is the outcome of one standalone request execution.
type RequestRun struct {
	ID       string
	Request  *http.Request
	Response *http.Response
	Duration time.Duration
	Err      error
}

// RunRequests executes the named requests in order, recording each
// response so later requests can reference earlier ones by id. The
// first failure aborts the remainder; the failed run stays in the
// returned slice with its error set.
func (r *Runner) RunRequests(ctx context.Context, ids []string, vars map[string]string) ([]*RequestRun, error) {
	store := response.NewStore()
	resolver := template.NewResolver(vars, store)

	runs := make([]*RequestRun, 0, len(ids))
	for _, id := range ids {
		def, ok := r.cfg.Requests[id]
		if !ok {
			return runs, fmt.Errorf("request not found: %q", id)
		}

		run := &RequestRun{ID: id}
		runs = append(runs, run)

		start := time.Now()
		req, err := http.BuildRequest(def, resolver.Resolve, r.cfg.BaseDir())
		if err != nil {
			run.Err = err
			run.Duration = time.Since(start)
			return runs, fmt.Errorf("request %q: %w", id, err)
		}
		run.Request = req

		resp, err := r.client.Do(ctx, req)
		run.Duration = time.Since(start)
		if err != nil {
			run.Err = err
			return runs, fmt.Errorf("request %q: %w", id, err)
		}
		run.Response = resp

		if err := store.Put(id, resp); err != nil {
			run.Err = err
			return runs, fmt.Errorf("request %q: %w", id, err)
		}
	}
	return runs, nil
}
