package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/chadmiller/fsch/internal/config"
	"github.com/chadmiller/fsch/internal/fabric"
	"github.com/chadmiller/fsch/internal/scheduler"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}

func writeSenFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSplitKV_WithEquals(t *testing.T) {
	key, value := splitKV("name=value")
	assert.Equal(t, "name", key)
	assert.Equal(t, "value", value)
}

func TestSplitKV_WithoutEquals(t *testing.T) {
	key, value := splitKV("  just a line  ")
	assert.Equal(t, "just a line", key)
	assert.Empty(t, value)
}

func TestSplitKV_ValueContainingEquals(t *testing.T) {
	key, value := splitKV("k=a=b=c")
	assert.Equal(t, "k", key)
	assert.Equal(t, "a=b=c", value)
}

func TestWorker_ArchivesOnMatchingKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeSenFile(t, dir, "a.sen", "other=1", "k=v")

	cfg := config.Config{SearchKey: "k", Policy: scheduler.Cyclic}
	fab := fabric.New(1)
	w := New(1, cfg, fab, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, fab.SendAssignment(1, fabric.Assignment{Path: path, Size: 10, Priority: 1}))
	fab.Broadcast(fabric.Stop{Count: 1})

	select {
	case msg := <-fab.Coord.Messages:
		require.NotNil(t, msg.Archive)
		assert.Equal(t, path, msg.Archive.Path)
		assert.Equal(t, 1, msg.Archive.Rank)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for archive request")
	}

	select {
	case msg := <-fab.Coord.Messages:
		require.NotNil(t, msg.Stop)
		assert.Equal(t, 1, msg.Stop.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop acknowledgement")
	}

	require.NoError(t, <-done)
}

func TestWorker_NoMatchNeverArchives(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeSenFile(t, dir, "x.sen", "other=1")

	cfg := config.Config{SearchKey: "k", Policy: scheduler.Cyclic}
	fab := fabric.New(1)
	w := New(1, cfg, fab, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, fab.SendAssignment(1, fabric.Assignment{Path: path, Size: 10, Priority: 1}))
	fab.Broadcast(fabric.Stop{Count: 1})

	select {
	case msg := <-fab.Coord.Messages:
		if msg.Archive != nil {
			t.Fatal("unexpected archive request for a non-matching file")
		}
		require.NotNil(t, msg.Stop)
		assert.Equal(t, 1, msg.Stop.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop acknowledgement")
	}

	require.NoError(t, <-done)
}

func TestWorker_UnreadableFileIsSkippedNotFatal(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Config{SearchKey: "k", Policy: scheduler.Cyclic}
	fab := fabric.New(1)
	w := New(1, cfg, fab, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, fab.SendAssignment(1, fabric.Assignment{Path: "/no/such/file.sen", Size: 10, Priority: 1}))
	fab.Broadcast(fabric.Stop{Count: 1})

	select {
	case msg := <-fab.Coord.Messages:
		require.NotNil(t, msg.Stop)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop acknowledgement")
	}

	require.NoError(t, <-done)
}

func TestWorker_ReportsQueueLengthFeedback(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeSenFile(t, dir, "a.sen", "other=1")

	cfg := config.Config{SearchKey: "k", Policy: scheduler.QueueLength}
	fab := fabric.New(1)
	w := New(1, cfg, fab, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, fab.SendAssignment(1, fabric.Assignment{Path: path, Size: 10, Priority: 1}))

	select {
	case msg := <-fab.Coord.Messages:
		require.NotNil(t, msg.Feedback)
		assert.Equal(t, 1, msg.Feedback.Rank)
		assert.GreaterOrEqual(t, msg.Feedback.Value, int64(0))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for queue-length feedback")
	}

	fab.Broadcast(fabric.Stop{Count: 1})
	<-fab.Coord.Messages
	require.NoError(t, <-done)
}
