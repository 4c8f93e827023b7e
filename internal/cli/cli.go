// Package cli parses the fsch command line, generalized from the
// teacher's Cli struct + MakeCli()/ParseArgs() pattern (cli.go) to the
// positional arguments and scheduling/priority flags spec.md 6
// describes. Usage printing and exit-code mechanics are out of scope
// per spec.md 1 -- this package only builds a config.Config from args.
package cli

import (
	"errors"
	"flag"

	"github.com/chadmiller/fsch/internal/config"
	"github.com/chadmiller/fsch/internal/scheduler"
)

// ErrUsage is returned when the required positional arguments are
// missing.
var ErrUsage = errors.New("cli: usage: fsch <work_dir> <archive_dir> <search_key> [sched_flag] [priority_flag]")

// Flags mirrors the Cli struct in cli.go: scheduling and priority
// options parsed into booleans, then resolved into their config.Config
// equivalents.
type Flags struct {
	Cyclic      bool
	Block       bool
	Random      bool
	QueueSize   bool
	QueueLength bool

	NoPriority         bool
	OldestFilePriority bool

	NumWorkers int
	LogLevel   string
}

// NewFlagSet registers fsch's flags on fs and returns the struct they
// populate, following cli.go's MakeCli() pattern of binding flag.*Var
// calls against struct fields.
func NewFlagSet(fs *flag.FlagSet) *Flags {
	f := new(Flags)

	fs.BoolVar(&f.Cyclic, "c", false, "Cyclic distribution (default)")
	fs.BoolVar(&f.Block, "b", false, "Block distribution")
	fs.BoolVar(&f.Random, "r", false, "Random distribution")
	fs.BoolVar(&f.QueueSize, "qs", false, "Queue size distribution")
	fs.BoolVar(&f.QueueLength, "ql", false, "Queue length distribution")

	fs.BoolVar(&f.NoPriority, "n", false, "No priority (default)")
	fs.BoolVar(&f.OldestFilePriority, "op", false, "Oldest files given priority")

	fs.IntVar(&f.NumWorkers, "workers", 4, "Number of worker ranks to spawn")
	fs.StringVar(&f.LogLevel, "log-level", "info", "Log level: debug, info, warning, error")

	return f
}

// Resolve picks a scheduler.Name from whichever distribution flag was
// set, CYCLIC being the default when none are, matching central.c's
// get_best_proc() switch and main.c's default sched_type.
func (f *Flags) Resolve() scheduler.Name {
	switch {
	case f.Block:
		return scheduler.Block
	case f.Random:
		return scheduler.Random
	case f.QueueSize:
		return scheduler.QueueSize
	case f.QueueLength:
		return scheduler.QueueLength
	default:
		return scheduler.Cyclic
	}
}

// ResolvePriority picks a config.PriorityOption, NO_PRIORITY being the
// default.
func (f *Flags) ResolvePriority() config.PriorityOption {
	if f.OldestFilePriority {
		return config.OldestFilePriority
	}
	return config.NoPriority
}

// Parse parses args (excluding the program name) into a config.Config.
// It requires at least work_dir, archive_dir, and search_key.
func Parse(args []string) (config.Config, *Flags, error) {
	fs := flag.NewFlagSet("fsch", flag.ContinueOnError)
	flags := NewFlagSet(fs)

	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, err
	}

	positional := fs.Args()
	if len(positional) < 3 {
		return config.Config{}, nil, ErrUsage
	}

	// Scheduling and priority flags may also follow the positional
	// arguments, as in the usage line.
	if err := fs.Parse(positional[3:]); err != nil {
		return config.Config{}, nil, err
	}

	cfg := config.Config{
		WorkDir:        positional[0],
		ArchiveDir:     positional[1],
		SearchKey:      positional[2],
		Policy:         flags.Resolve(),
		PriorityOption: flags.ResolvePriority(),
		NumWorkers:     flags.NumWorkers,
	}.Normalize()

	return cfg, flags, nil
}
