// Package coordinator implements rank 0: it enumerates the work
// directory, dispatches files to workers under a scheduling policy, and
// runs a concurrent Archive Listener that services archive requests,
// queue feedback, and stop acknowledgements until every worker has
// checked in.
//
// Grounded on central.c's init_central/enqueue_all_files/
// archive_thread_func/get_best_proc/central_cleanup, and on
// thread_pool.go's lifecycle idiom (a supervising goroutine launched at
// construction time, joined via a wait mechanism at shutdown) --
// generalized here from a raw done-channel into golang.org/x/sync/
// errgroup, since the Coordinator now supervises two cooperating
// goroutines (dispatch and the Archive Listener) whose errors must
// propagate per spec.md 7's fatal/non-fatal split.
package coordinator

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chadmiller/fsch/internal/config"
	"github.com/chadmiller/fsch/internal/fabric"
	"github.com/chadmiller/fsch/internal/filedesc"
	"github.com/chadmiller/fsch/internal/logx"
	"github.com/chadmiller/fsch/internal/pqueue"
	"github.com/chadmiller/fsch/internal/scheduler"
)

// Archiver moves a file into the archive directory. The default,
// OSArchiver, wraps os.Rename. Grounded on central.c's move_file.
type Archiver interface {
	Archive(path, archiveDir string) error
}

// OSArchiver archives by filesystem rename, preserving the basename.
type OSArchiver struct{}

func (OSArchiver) Archive(path, archiveDir string) error {
	dst := filepath.Join(archiveDir, filepath.Base(path))
	return os.Rename(path, dst)
}

// Coordinator is rank 0.
type Coordinator struct {
	cfg      config.Config
	fab      *fabric.Fabric
	lister   DirLister
	archiver Archiver
	policy   scheduler.Policy
	feedback *nodeFeedback
	logger   *zap.Logger

	queue *pqueue.Queue[filedesc.FileDescriptor]
}

// New constructs a Coordinator. It takes no scheduling policy:
// BlockPolicy needs ComputeFilesPerProc, which depends on the enumerated
// file count, and the Coordinator only knows that count after it has
// enumerated -- so Run accepts a PolicyFactory and builds the policy
// then.
func New(cfg config.Config, fab *fabric.Fabric, lister DirLister, archiver Archiver, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		fab:      fab,
		lister:   lister,
		archiver: archiver,
		feedback: newNodeFeedback(cfg.NumWorkers),
		logger:   logger,
		queue:    pqueue.New[filedesc.FileDescriptor](),
	}
}

// PolicyFactory builds the scheduler.Policy to dispatch with, given the
// total number of files enumerated. BLOCK needs this count to compute
// files_per_proc; the other policies ignore it.
type PolicyFactory func(totalFiles int) scheduler.Policy

// Run enumerates the work directory, dispatches every file, broadcasts
// stop, and blocks until every worker has acknowledged. It mirrors
// central.c's state machine: Init, Enumerate, Dispatch, Stop broadcast,
// Wait for drain, Cleanup.
func (c *Coordinator) Run(ctx context.Context, newPolicy PolicyFactory) error {
	g, ctx := errgroup.WithContext(ctx)

	// The Archive Listener runs concurrently with enumeration and
	// dispatch, exactly as central.c spawns archive_thread before
	// doing anything else.
	g.Go(func() error {
		return c.archiveListener(ctx)
	})

	descs, err := enumerate(ctx, c.lister, c.cfg)
	if err != nil {
		return err
	}

	c.policy = newPolicy(len(descs))

	for _, d := range descs {
		if err := c.queue.Enqueue(d); err != nil {
			return err
		}
	}

	c.dispatch()

	c.fab.Broadcast(fabric.Stop{Count: 1})

	return g.Wait()
}

// dispatch drains the global queue, picking a worker rank for each file
// via the configured scheduler.Policy and sending it the assignment.
// Grounded on central.c's main dispatch loop (MPI_Send of path, size,
// priority to get_best_proc()'s chosen rank).
func (c *Coordinator) dispatch() {
	for {
		d, ok := c.queue.Dequeue()
		if !ok {
			return
		}

		rank := c.policy.Next(c.cfg.NumWorkers, c.feedback)

		if err := c.fab.SendAssignment(rank, d.ToAssignment()); err != nil {
			c.logger.Error("failed to dispatch assignment",
				zap.String("path", d.Path),
				zap.Int("rank", rank),
				zap.Error(err),
			)
			continue
		}

		c.logger.Info("dispatched file",
			zap.String("path", d.Path),
			zap.Int64("size", d.Size),
			zap.String("human_size", logx.HumanSize(d.Size)),
			zap.Int("priority", d.Prio),
			zap.Int("rank", rank),
		)
	}
}

// archiveListener loops servicing ARCHIVE, STOP, and QUEUE_DATA
// messages until it has observed one stop per worker rank, matching
// central.c's archive_thread_func.
//
// All three message kinds arrive on the single fab.Coord.Messages
// channel so that, between any one worker and the coordinator, they are
// handled in the order they were sent (see internal/fabric's package
// doc) -- a select across three separate channels here would not make
// that promise.
func (c *Coordinator) archiveListener(ctx context.Context) error {
	stopCount := 0

	for stopCount < c.cfg.NumWorkers {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg := <-c.fab.Coord.Messages:
			switch {
			case msg.Archive != nil:
				req := *msg.Archive
				if err := c.archiver.Archive(req.Path, c.cfg.ArchiveDir); err != nil {
					// Cross-device or permission failures are logged but
					// never halt the run (spec.md 4.3).
					c.logger.Warn("archive rename failed",
						zap.String("path", req.Path),
						zap.Int("rank", req.Rank),
						zap.Error(err),
					)
					continue
				}
				c.logger.Info("archived file",
					zap.String("path", req.Path),
					zap.Int64("size", req.Size),
					zap.String("human_size", logx.HumanSize(req.Size)),
					zap.Int("rank", req.Rank),
				)

			case msg.Feedback != nil:
				c.feedback.Set(msg.Feedback.Rank, msg.Feedback.Value)

			case msg.Stop != nil:
				stopCount += msg.Stop.Count
			}
		}
	}

	return nil
}
