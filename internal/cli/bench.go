package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/termlab/termpool/internal/pool"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	Sessions    int
	Terms       int
	Seed        int64
	MetricsAddr string
}

// BenchResult is the success payload of the bench command.
type BenchResult struct {
	Sessions    int    `json:"sessions"`
	Terms       int    `json:"terms_per_session"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	Live        int64  `json:"live_terms"`
	Capacity    int64  `json:"capacity"`
	Collections uint64 `json:"collections"`
}

func (r BenchResult) String() string {
	return fmt.Sprintf("sessions=%d terms=%d elapsed=%dms live=%d capacity=%d collections=%d",
		r.Sessions, r.Terms, r.ElapsedMS, r.Live, r.Capacity, r.Collections)
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Stress the pool with concurrent random term construction",
		Long: `Run concurrent producer sessions, each building random terms that
share subterms heavily, then report the resulting pool shape. With
--metrics-addr the pool's Prometheus metrics are served for the duration
of the run.

Example:
  termpool bench --sessions 8 --terms 100000
  termpool bench --config policy.cue --metrics-addr :9090`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Sessions, "sessions", 4, "number of concurrent producer sessions")
	cmd.Flags().IntVar(&opts.Terms, "terms", 10000, "construction iterations per session")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "base random seed")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")

	return cmd
}

func runBench(opts *BenchOptions, cmd *cobra.Command) error {
	if opts.Sessions <= 0 || opts.Terms <= 0 {
		return WrapExitError(ExitCommandError, "sessions and terms must be positive", nil)
	}

	p, err := opts.newPool()
	if err != nil {
		return err
	}

	if opts.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(pool.NewMetricsCollector(p))
		server := &http.Server{
			Addr:    opts.MetricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		defer server.Close()
		go func() {
			slog.Info("serving metrics", "addr", opts.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	slog.Info("starting benchmark", "sessions", opts.Sessions, "terms", opts.Terms, "seed", opts.Seed)
	start := time.Now()

	var wg sync.WaitGroup
	errs := make([]error, opts.Sessions)
	for i := 0; i < opts.Sessions; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			sess := p.NewSession()
			defer sess.Close()

			rng := rand.New(rand.NewSource(opts.Seed + int64(worker)))
			_, errs[worker] = sess.Random(rng, pool.DefaultRandomSpec(opts.Terms))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return WrapExitError(ExitFailure, "benchmark worker failed", err)
		}
	}

	// All sessions are closed; a final cycle shows the floor the pool
	// settles at.
	if err := p.Collect(); err != nil {
		return WrapExitError(ExitFailure, "final collection failed", err)
	}

	m := p.Metrics()
	result := BenchResult{
		Sessions:    opts.Sessions,
		Terms:       opts.Terms,
		ElapsedMS:   time.Since(start).Milliseconds(),
		Live:        m.Terms,
		Capacity:    m.Capacity,
		Collections: m.Collections,
	}
	return opts.formatter(cmd).Success(result)
}
