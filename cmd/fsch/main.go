// Command fsch enumerates a work directory, distributes its files across
// a pool of worker ranks under a configurable scheduling policy, and
// archives every file whose contents match a search key.
//
// Grounded on main.c's top-level state machine (parse args, spawn
// central + N nodes, wait, report elapsed time) and main.go's own
// shape (parse, build, run, report time.Since(startTime)).
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chadmiller/fsch/internal/cli"
	"github.com/chadmiller/fsch/internal/coordinator"
	"github.com/chadmiller/fsch/internal/fabric"
	"github.com/chadmiller/fsch/internal/logx"
	"github.com/chadmiller/fsch/internal/scheduler"
	"github.com/chadmiller/fsch/internal/worker"
)

func main() {
	cfg, flags, err := cli.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if err := logx.SetLevel(flags.LogLevel); err != nil {
		log.Fatal(err)
	}

	logger, err := logx.NewLogger(flags.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fab := fabric.New(cfg.NumWorkers)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	g, gctx := errgroup.WithContext(ctx)

	coord := coordinator.New(cfg, fab, coordinator.OSDirLister{}, coordinator.OSArchiver{}, logger)
	g.Go(func() error {
		return coord.Run(gctx, func(totalFiles int) scheduler.Policy {
			return scheduler.NewPolicy(cfg.Policy, totalFiles, cfg.NumWorkers, rng)
		})
	})

	for rank := 1; rank <= cfg.NumWorkers; rank++ {
		w := worker.New(rank, cfg, fab, logger)
		g.Go(func() error { return w.Run(gctx) })
	}

	startTime := time.Now()

	if err := g.Wait(); err != nil {
		logger.Error("fsch run failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("fsch run took: %s\n", time.Since(startTime))
}
