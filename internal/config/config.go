// Package config holds the fsch run's immutable configuration: work and
// archive directories, the search key, the scheduling policy, and the
// priority option.
package config

import (
	"path/filepath"
	"strings"

	"github.com/chadmiller/fsch/internal/scheduler"
)

// PriorityOption selects how file priority is assigned during
// enumeration.
type PriorityOption int

const (
	NoPriority PriorityOption = iota
	OldestFilePriority
)

// Config is built once by internal/cli and never mutated afterward.
type Config struct {
	WorkDir        string
	ArchiveDir     string
	SearchKey      string
	Policy         scheduler.Name
	PriorityOption PriorityOption
	NumWorkers     int
}

// Normalize appends a trailing path separator to WorkDir and ArchiveDir
// if one isn't already present, matching main.c's directory-argument
// handling ("Coordinator appends a trailing / to both directory
// arguments if absent").
func (c Config) Normalize() Config {
	c.WorkDir = withTrailingSlash(c.WorkDir)
	c.ArchiveDir = withTrailingSlash(c.ArchiveDir)
	return c
}

func withTrailingSlash(dir string) string {
	dir = filepath.Clean(dir)
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return dir
}
