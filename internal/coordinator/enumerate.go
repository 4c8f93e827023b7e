package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chadmiller/fsch/internal/config"
	"github.com/chadmiller/fsch/internal/filedesc"
)

// DirEntry is the minimal shape the Coordinator needs from a directory
// scan: a name and a byte size. Directory scanning mechanics (symlink
// handling, permission errors on the walk itself, etc.) are explicitly
// out of scope per spec.md 1 -- DirLister is the seam where an external
// collaborator plugs in.
type DirEntry struct {
	Name string
	Size int64
}

// DirLister enumerates the entries directly under a directory. The
// default implementation, OSDirLister, wraps os.ReadDir + os.Stat.
type DirLister interface {
	ReadDir(ctx context.Context, dir string) ([]DirEntry, error)
}

// OSDirLister is the default DirLister, backed by the filesystem.
type OSDirLister struct{}

func (OSDirLister) ReadDir(_ context.Context, dir string) ([]DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Skip unreadable entries; enumeration continues for the
			// rest (spec.md 7: I/O errors are logged and skipped,
			// never fatal to the run).
			continue
		}
		out = append(out, DirEntry{Name: e.Name(), Size: info.Size()})
	}
	return out, nil
}

// isValidFileName reports whether a directory entry should be
// enumerated: it must not start with "." and must end with ".sen",
// matching central.c's file_name_valid.
func isValidFileName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".sen")
}

// priorityFor computes a file's priority per the configured option.
// NO_PRIORITY always yields 1. OLDEST_FILE_PRIORITY extracts the
// integer substring immediately after the first '_' in the file's
// base name and negates it, so a numerically smaller (older) T yields
// a numerically higher priority. An unparseable or missing substring
// yields priority 0, per spec.md 7's parse-error tolerance.
func priorityFor(opt config.PriorityOption, name string) int {
	if opt != config.OldestFilePriority {
		return 1
	}

	idx := strings.IndexByte(name, '_')
	if idx == -1 || idx+1 >= len(name) {
		return 0
	}
	return -leadingInt(name[idx+1:])
}

// leadingInt parses the leading optional-sign digit run of s, mirroring
// C's atoi: it stops at the first non-digit rather than erroring on
// trailing garbage, and yields 0 when there's no leading digit at all.
func leadingInt(s string) int {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0
	}
	v, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0
	}
	if neg {
		v = -v
	}
	return v
}

// enumerate reads every valid entry of cfg.WorkDir and returns the
// FileDescriptors to enqueue, grounded on central.c's
// enqueue_all_files.
func enumerate(ctx context.Context, lister DirLister, cfg config.Config) ([]filedesc.FileDescriptor, error) {
	entries, err := lister.ReadDir(ctx, cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	descs := make([]filedesc.FileDescriptor, 0, len(entries))
	for _, e := range entries {
		if !isValidFileName(e.Name) {
			continue
		}
		descs = append(descs, filedesc.FileDescriptor{
			Path: filepath.Join(cfg.WorkDir, e.Name),
			Size: e.Size,
			Prio: priorityFor(cfg.PriorityOption, e.Name),
		})
	}
	return descs, nil
}
