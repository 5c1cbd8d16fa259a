package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/weft-dev/weft/pkg/executor"
	"github.com/weft-dev/weft/pkg/inspect"
	"github.com/weft-dev/weft/pkg/metrics"
	"github.com/weft-dev/weft/pkg/observability"
	"github.com/weft-dev/weft/pkg/weft"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		verbose bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo graph with a live inspection endpoint",
		Long: `Run a small reactive graph driven by a wall-clock ticker and serve
its activity on a debug HTTP endpoint:

  /healthz   liveness
  /stats     activity counters as JSON
  /metrics   Prometheus metrics
  /events    live graph events over WebSocket`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, verbose, workers)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:7171", "Inspect server address")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every graph event")
	cmd.Flags().IntVar(&workers, "workers", 4, "Executor worker count")

	return cmd
}

func runServe(addr string, verbose bool, workers int) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	pool := executor.NewPool(workers)
	defer pool.Close()
	if err := executor.Drive(pool); err != nil {
		return err
	}
	defer executor.Reset()

	srv := inspect.NewServer(addr, inspect.WithLogger(logger))

	observers := []weft.Observer{
		metrics.New(),
		srv.Events(),
	}
	if verbose {
		observers = append(observers, observability.NewSlogObserver(logger))
	}
	weft.SetObserver(observability.NewMultiObserver(observers...))
	defer weft.SetObserver(nil)

	root := weft.NewRoot()
	defer root.Dispose()

	root.With(func() {
		now := weft.NewSignal(time.Now())
		second := weft.NewMemo(func() int {
			return now.Get().Second()
		})
		minute := weft.NewMemo(func() int {
			return now.Get().Minute()
		})
		weft.NewEffect(func() weft.Cleanup {
			logger.Info("tick", "minute", minute.Get(), "second", second.Get())
			return nil
		})

		ticker := time.NewTicker(time.Second)
		weft.OnCleanup(ticker.Stop)
		go func() {
			for t := range ticker.C {
				now.Set(t)
			}
		}()
	})

	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Printf("inspect endpoint on http://%s\n", addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
