package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

const forcedExitCode = 130

// notifyStop cancels the returned context on the first SIGINT or SIGTERM and
// exits the process on the second.
func notifyStop(parent context.Context, logger *zap.Logger, exit func(int)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-signals:
			logger.Info("stop requested, finishing current account", zap.String("signal", sig.String()))
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-signals:
			logger.Warn("second stop signal, exiting now", zap.String("signal", sig.String()))
			exit(forcedExitCode)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(signals)
		close(done)
		cancel()
	}
}
