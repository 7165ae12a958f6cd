package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/abdul-hamid-achik/apictl/packages/core/template"
	"github.com/abdul-hamid-achik/apictl/packages/http"
	"github.com/abdul-hamid-achik/apictl/packages/response"
)

// progressInterval is how often the progress callback fires during a run.
const progressInterval = 500 * time.Millisecond

// Runner replays a request list against a configuration and aggregates
// latency metrics.
type Runner struct {
	cfg     *config.Config
	bench   Config
	client  *http.Client
	metrics *Metrics
	limiter *rate.Limiter

	onProgress func(completed, total int64)

	next      atomic.Int64
	completed atomic.Int64
}

type RunnerOption func(*Runner)

// WithHTTPClient replaces the default client, for callers that tuned
// timeouts or redirect policy.
func WithHTTPClient(c *http.Client) RunnerOption {
	return func(r *Runner) { r.client = c }
}

// WithProgress registers a callback that receives completed and total
// iteration counts on a fixed cadence, and once more when the run ends.
func WithProgress(fn func(completed, total int64)) RunnerOption {
	return func(r *Runner) { r.onProgress = fn }
}

// NewRunner validates the benchmark against the configuration and prepares
// a run. Every name must resolve to a request, and a name may appear only
// once since it doubles as the response store key.
func NewRunner(cfg *config.Config, bench Config, opts ...RunnerOption) (*Runner, error) {
	bench = bench.withDefaults()
	if err := bench.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(bench.Requests))
	for _, name := range bench.Requests {
		if _, ok := cfg.Requests[name]; !ok {
			return nil, fmt.Errorf("request not found: %q", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("request %q is listed more than once", name)
		}
		seen[name] = struct{}{}
	}

	r := &Runner{
		cfg:     cfg,
		bench:   bench,
		client:  http.NewClient(),
		metrics: NewMetrics(),
	}
	if bench.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(bench.Rate), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the benchmark. Cancelling the context stops the workers
// after their current request; the partial summary is still returned.
func (r *Runner) Run(ctx context.Context) *Summary {
	total := int64(r.bench.Number)
	start := time.Now()

	done := make(chan struct{})
	if r.onProgress != nil {
		go r.progressLoop(done)
	}

	var wg sync.WaitGroup
	for i := 0; i < r.bench.Parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(ctx, total)
		}()
	}
	wg.Wait()
	close(done)

	if r.onProgress != nil {
		r.onProgress(r.completed.Load(), total)
	}
	return r.metrics.Summarize(time.Since(start))
}

// work claims iterations until the counter runs out or the context ends.
func (r *Runner) work(ctx context.Context, total int64) {
	for {
		i := r.next.Add(1) - 1
		if i >= total {
			return
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
		} else if ctx.Err() != nil {
			return
		}
		r.runIteration(ctx)
		r.completed.Add(1)
	}
}

// runIteration sends the request list once. A fresh store scopes response
// chaining to this iteration. A failed request is recorded and skipped
// while the rest of the list still runs.
func (r *Runner) runIteration(ctx context.Context) {
	store := response.NewStore()
	resolver := template.NewResolver(r.bench.Vars, store)

	for _, name := range r.bench.Requests {
		started := time.Now()
		resp, err := r.send(ctx, name, resolver, store)
		if err != nil {
			r.metrics.RecordError(err)
			continue
		}
		r.metrics.RecordSuccess(resp.StatusCode, time.Since(started))
	}
}

func (r *Runner) send(ctx context.Context, name string, resolver *template.Resolver, store *response.Store) (*http.Response, error) {
	def := r.cfg.Requests[name]
	req, err := http.BuildRequest(def, resolver.Resolve, r.cfg.BaseDir())
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", name, err)
	}
	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", name, err)
	}
	if err := store.Put(name, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *Runner) progressLoop(done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	total := int64(r.bench.Number)
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.onProgress(r.completed.Load(), total)
		}
	}
}
