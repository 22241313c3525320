package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bnema/cyclerun/internal/adapters/action/execaction"
	"github.com/bnema/cyclerun/internal/adapters/action/httpaction"
	filestore "github.com/bnema/cyclerun/internal/adapters/checkpoint/file"
	memorystore "github.com/bnema/cyclerun/internal/adapters/checkpoint/memory"
	sqlitestore "github.com/bnema/cyclerun/internal/adapters/checkpoint/sqlite"
	statusadapter "github.com/bnema/cyclerun/internal/adapters/render/status"
	"github.com/bnema/cyclerun/internal/adapters/repo/tokenfile"
	tomlrepo "github.com/bnema/cyclerun/internal/adapters/repo/toml"
	"github.com/bnema/cyclerun/internal/adapters/secrets/pass"
	"github.com/bnema/cyclerun/internal/application"
	"github.com/bnema/cyclerun/internal/config"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/logging"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errHistoryUnsupported = errors.New("run history needs the sqlite checkpoint backend")

type app struct {
	cfg    *config.Config
	viper  *viper.Viper
	logger *zap.Logger

	accounts ports.AccountRepository
	// runAccounts resolves pass:// session tokens; only run and try need real tokens.
	runAccounts ports.AccountRepository
	store       ports.CheckpointStore
	// recorder and history are set only by backends that keep job results.
	recorder ports.ResultRecorder
	history  ports.RunHistory
	service  *application.Service

	statusRenderer  func([]application.Status, statusadapter.RenderOptions) (string, error)
	historyRenderer func([]domain.JobResult, statusadapter.RenderOptions) (string, error)
	now             func() time.Time

	closers []func() error
}

func (a *app) wire(configPath string, logOutput io.Writer) error {
	cfg, v, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOutput)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	a.cfg = cfg
	a.viper = v
	a.logger = logger
	a.closers = append(a.closers, func() error {
		// Sync on a terminal returns EINVAL/ENOTTY; nothing to report.
		_ = logger.Sync()
		return nil
	})

	accounts, err := wireAccounts(cfg.Accounts, v, logger)
	if err != nil {
		return err
	}
	a.accounts = accounts
	a.runAccounts = application.NewResolvingRepository(accounts, pass.NewResolver())

	if err := a.wireStore(cfg.Checkpoint); err != nil {
		return err
	}

	a.service = application.NewService(a.accounts, a.store, ports.SystemClock{}, cfg.Executor.Cooldown)
	a.statusRenderer = statusadapter.Render
	a.historyRenderer = statusadapter.RenderHistory
	a.now = time.Now

	return nil
}

func wireAccounts(cfg config.AccountsConfig, v *viper.Viper, logger *zap.Logger) (ports.AccountRepository, error) {
	switch cfg.Source {
	case config.SourceTokenFile:
		return tokenfile.NewSource(cfg.TokenFile, cfg.ProxiesFile, logger), nil
	default:
		repo, err := tomlrepo.NewRepository(v)
		if err != nil {
			return nil, fmt.Errorf("wire account repository: %w", err)
		}
		return repo, nil
	}
}

func (a *app) wireStore(cfg config.CheckpointConfig) error {
	switch cfg.Backend {
	case config.BackendTOML:
		store, err := tomlrepo.NewCheckpointStore(a.viper)
		if err != nil {
			return fmt.Errorf("wire checkpoint store: %w", err)
		}
		a.store = store
	case config.BackendSQLite:
		store, err := sqlitestore.Open(cfg.SQLiteDir)
		if err != nil {
			return fmt.Errorf("wire checkpoint store: %w", err)
		}
		a.store = store
		a.recorder = store
		a.history = store
		a.closers = append(a.closers, store.Close)
	case config.BackendMemory:
		a.store = memorystore.NewStore()
	default:
		a.store = filestore.NewStore(cfg.Dir)
	}

	return nil
}

func wireAction(cfg config.ActionConfig) (ports.Action, error) {
	switch cfg.Kind {
	case config.ActionExec:
		action, err := execaction.New(execaction.Config{
			Command:             cfg.Exec.Command,
			Dir:                 cfg.Exec.Dir,
			AuthExpiredExitCode: cfg.Exec.AuthExpiredExitCode,
			NothingToDoExitCode: cfg.Exec.NothingToDoExitCode,
		})
		if err != nil {
			return nil, fmt.Errorf("wire exec action: %w", err)
		}
		return action, nil
	default:
		action, err := httpaction.New(httpaction.Config{
			URL:             cfg.HTTP.URL,
			Method:          cfg.HTTP.Method,
			Body:            cfg.HTTP.Body,
			CookieName:      cfg.HTTP.CookieName,
			UserAgent:       cfg.HTTP.UserAgent,
			Headers:         cfg.HTTP.Headers,
			LoginPaths:      cfg.HTTP.LoginPaths,
			SuccessSelector: cfg.HTTP.SuccessSelector,
		})
		if err != nil {
			return nil, fmt.Errorf("wire http action: %w", err)
		}
		return action, nil
	}
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}

func (a *app) renderOptions() statusadapter.RenderOptions {
	return statusadapter.RenderOptions{
		Now:      a.now(),
		Cooldown: a.cfg.Executor.Cooldown,
	}
}
