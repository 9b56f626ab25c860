package interfaces

import (
	"context"
	"time"
)

// Command describes a single external process invocation
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// RunResult contains the outcome of an external process invocation
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CommandRunner abstracts subprocess execution so that discovery, build,
// optimize and strip steps can be tested with a fake implementation
// instead of real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (*RunResult, error)
}
