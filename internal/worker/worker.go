// Package worker implements a worker rank: it receives file assignments
// from the Coordinator into a local priority queue, processes them on
// a separate goroutine, and participates in cooperative termination.
//
// Grounded on node.c's init_node/process_thread_func/process/
// node_cleanup, translated into a receive-loop goroutine + processor
// goroutine pair supervised by golang.org/x/sync/errgroup -- the same
// generalization the Coordinator makes over the teacher's
// ThreadPool.wg/doneCh pairing (thread_pool.go), since a Worker here
// also supervises two cooperating goroutines whose exit must be joined
// before it acknowledges stop.
package worker

import (
	"bufio"
	"context"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chadmiller/fsch/internal/config"
	"github.com/chadmiller/fsch/internal/fabric"
	"github.com/chadmiller/fsch/internal/filedesc"
	"github.com/chadmiller/fsch/internal/pqueue"
	"github.com/chadmiller/fsch/internal/scheduler"
)

// maxLineBytes bounds a single line read from an input file, matching
// univ.h's LINE_NUM_CHARS.
const maxLineBytes = 80

// persistCycles is the number of no-op iterations burned to simulate
// the database-insertion step spec.md 1 scopes out as an opaque side
// effect, reproduced verbatim from node.c's burn_cycles(500).
const persistCycles = 500

// Worker is a single worker rank.
type Worker struct {
	rank   int
	cfg    config.Config
	fab    *fabric.Fabric
	logger *zap.Logger

	queue     *pqueue.Queue[filedesc.FileDescriptor]
	doProcess atomic.Bool
}

// New constructs a Worker for the given rank.
func New(rank int, cfg config.Config, fab *fabric.Fabric, logger *zap.Logger) *Worker {
	w := &Worker{
		rank:   rank,
		cfg:    cfg,
		fab:    fab,
		logger: logger,
		queue:  pqueue.New[filedesc.FileDescriptor](),
	}
	w.doProcess.Store(true)
	return w
}

// Run drives the worker's full lifecycle: receive loop and processor
// goroutine run concurrently until both exit, then a single STOP_TAG
// acknowledgement is sent to the Coordinator, matching node.c's
// node_cleanup.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return w.receiveLoop(gctx) })
	g.Go(func() error { return w.processLoop(gctx) })

	if err := g.Wait(); err != nil {
		return err
	}

	w.fab.SendStopAck(w.rank)
	return nil
}

// receiveLoop is the main thread of node.c: it awaits assignments and
// the stop signal from the Coordinator, in the order the fabric
// guarantees they arrive. Both message kinds travel on the single
// inbox.Messages channel so a STOP can never be observed ahead of an
// ASSIGNMENT sent before it (see internal/fabric's package doc).
func (w *Worker) receiveLoop(ctx context.Context) error {
	inbox := w.fab.Worker(w.rank)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-inbox.Messages:
			if !ok {
				return nil
			}

			switch {
			case msg.Assignment != nil:
				d := filedesc.FromAssignment(*msg.Assignment)
				if err := w.queue.Enqueue(d); err != nil {
					w.logger.Error("failed to enqueue assignment",
						zap.Int("rank", w.rank), zap.String("path", d.Path), zap.Error(err))
					continue
				}
				w.reportFeedbackIfNeeded()

			case msg.Stop != nil:
				w.doProcess.Store(false)
				return nil
			}
		}
	}
}

// reportFeedbackIfNeeded sends a QUEUE_DATA_TAG message back to the
// Coordinator when the configured policy needs it, reading the metric
// straight off the local queue -- QUEUE_SIZE wants sum_size, QUEUE_LENGTH
// wants size.
func (w *Worker) reportFeedbackIfNeeded() {
	switch w.cfg.Policy {
	case scheduler.QueueSize:
		w.fab.SendFeedback(fabric.QueueData{Rank: w.rank, Value: w.queue.SumSize()})
	case scheduler.QueueLength:
		w.fab.SendFeedback(fabric.QueueData{Rank: w.rank, Value: int64(w.queue.Size())})
	}
}

// processLoop is node.c's process_thread_func: it keeps dequeuing and
// processing while do_process is true or the local queue is
// non-empty, guaranteeing the queue is fully drained after stop is
// signalled. Dequeue never blocks, so an empty queue with do_process
// still true just yields the scheduler.
func (w *Worker) processLoop(ctx context.Context) error {
	for w.doProcess.Load() || !w.queue.Empty() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		d, ok := w.queue.Dequeue()
		if !ok {
			runtime.Gosched()
			continue
		}
		w.processFile(d)
	}
	return nil
}

// processFile is node.c's process(): read the file line by line
// looking for a key/value pair whose key matches cfg.SearchKey. On a
// hit, log it, request an archive, simulate the persistence step, and
// stop reading. Unreadable files are skipped with a logged error
// (spec.md 7); a failed archive request is not retried.
func (w *Worker) processFile(d filedesc.FileDescriptor) {
	f, err := os.Open(d.Path)
	if err != nil {
		w.logger.Error("failed to open file",
			zap.Int("rank", w.rank), zap.String("path", d.Path), zap.Error(err))
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxLineBytes), maxLineBytes)

	for scanner.Scan() {
		key, value := splitKV(scanner.Text())
		if key != w.cfg.SearchKey {
			continue
		}

		w.logger.Info("found matching key",
			zap.Int("rank", w.rank),
			zap.String("path", d.Path),
			zap.String("key", key),
			zap.String("value", value),
		)

		w.fab.SendArchive(fabric.ArchiveRequest{Rank: w.rank, Path: d.Path, Size: d.Size})
		burnCycles(persistCycles)
		return
	}

	if err := scanner.Err(); err != nil {
		w.logger.Error("failed reading file",
			zap.Int("rank", w.rank), zap.String("path", d.Path), zap.Error(err))
	}
}

// splitKV splits a line on the first '=' into a key and value. A line
// lacking '=' yields the whole trimmed line as the key and an empty
// value, per spec.md 4.4's parsing contract -- such a line can never
// match a non-empty search key.
func splitKV(line string) (key, value string) {
	key, value, found := strings.Cut(line, "=")
	if !found {
		return strings.TrimSpace(line), ""
	}
	return key, value
}

// burnCycles simulates the "insert into database" side effect spec.md
// 1 keeps opaque, reproduced from node.c's burn_cycles: a pure CPU
// spin with no observable effect beyond time spent.
func burnCycles(n int) {
	x := 0
	for i := 0; i < n; i++ {
		x += i
	}
	_ = x
}
