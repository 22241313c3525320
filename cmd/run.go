package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	memorystore "github.com/bnema/cyclerun/internal/adapters/checkpoint/memory"
	"github.com/bnema/cyclerun/internal/adapters/metrics"
	"github.com/bnema/cyclerun/internal/application"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const metricsShutdownTimeout = 5 * time.Second

type runOptions struct {
	once      bool
	maxCycles int
	dryRun    bool
}

func newRunCmd(app *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job for every account on a repeating cycle",
		Long:  "run processes each account in order, skips accounts still within their cooldown, and sleeps until the next cycle. SIGINT or SIGTERM stops after the current account; a second signal exits immediately.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := notifyStop(cmd.Context(), app.logger, os.Exit)
			defer stop()

			return runScheduler(ctx, app, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single cycle and exit")
	cmd.Flags().IntVar(&opts.maxCycles, "max-cycles", 0, "Stop after N cycles (0 uses scheduler.max_cycles)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would run without performing the action or saving checkpoints")

	return cmd
}

func runScheduler(ctx context.Context, app *app, opts runOptions) error {
	logger := app.logger

	accounts, err := app.runAccounts.List(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if len(accounts) == 0 {
		return domain.ErrNoAccounts
	}

	schedulerCfg := app.cfg.SchedulerConfig()
	if opts.maxCycles > 0 {
		schedulerCfg.MaxCycles = opts.maxCycles
	}
	if opts.once {
		schedulerCfg.MaxCycles = 1
	}

	store := app.store
	recorder := app.recorder
	var action ports.Action
	if opts.dryRun {
		store, err = snapshotStore(ctx, app.store)
		if err != nil {
			return err
		}
		recorder = nil
		action = dryRunAction(logger)
	} else {
		action, err = wireAction(app.cfg.Action)
		if err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("wire metrics: %w", err)
	}

	executorOpts := []application.ExecutorOption{
		application.WithExecutorLogger(logger),
		application.WithExecutorObserver(observer),
	}
	if recorder != nil {
		executorOpts = append(executorOpts, application.WithResultRecorder(recorder))
	}
	executor := application.NewExecutor(store, ports.SystemClock{}, app.cfg.ExecutorConfig(), executorOpts...)
	scheduler := application.NewScheduler(executor, action, schedulerCfg,
		application.WithSchedulerLogger(logger),
		application.WithSchedulerObserver(observer),
	)

	g, gctx := errgroup.WithContext(ctx)
	schedulerDone := make(chan struct{})

	g.Go(func() error {
		defer close(schedulerDone)
		return scheduler.Run(gctx, accounts)
	})

	if listen := app.cfg.Metrics.Listen; listen != "" {
		server := &http.Server{
			Addr:              listen,
			Handler:           metricsMux(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", listen))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			select {
			case <-schedulerDone:
			case <-gctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func metricsMux(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	return mux
}

// snapshotStore copies the configured checkpoints into memory so a dry run
// gates accounts the same way without writing anything back.
func snapshotStore(ctx context.Context, source ports.CheckpointStore) (*memorystore.Store, error) {
	checkpoints, err := source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot checkpoints: %w", err)
	}

	store := memorystore.NewStore()
	for _, checkpoint := range checkpoints {
		if err := store.Set(ctx, checkpoint); err != nil {
			return nil, fmt.Errorf("snapshot checkpoints: %w", err)
		}
	}

	return store, nil
}

func dryRunAction(logger *zap.Logger) ports.Action {
	return ports.ActionFunc(func(_ context.Context, account domain.Account) error {
		logger.Info("dry run, action not performed", zap.String("account", string(account.ID)))
		return nil
	})
}
