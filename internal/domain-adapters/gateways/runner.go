// Package gateways implements the adapters that talk to external tools,
// the network and the filesystem.
package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"wasmforge/internal/domain/interfaces"
)

// ExecRunner runs external commands via os/exec. Extra executable
// directories installed by the provisioner are prepended to PATH for every
// invocation rather than mutating the process environment, so the search
// path stays an explicit value.
type ExecRunner struct {
	logger    interfaces.Logger
	extraPath []string
}

// NewExecRunner creates a new exec-based command runner
func NewExecRunner(logger interfaces.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Prepend adds executable directories to the front of the search path used
// by subsequent Run calls. Callers prepend before launching concurrent
// pipelines; Run does not lock.
func (r *ExecRunner) Prepend(dirs ...string) {
	r.extraPath = append(dirs, r.extraPath...)
}

// Run executes a command and captures its output. A non-zero exit returns
// the populated result together with an error carrying the exit code and a
// stderr excerpt.
func (r *ExecRunner) Run(ctx context.Context, c interfaces.Command) (*interfaces.RunResult, error) {
	start := time.Now()

	//nolint:gosec // G204: command names come from the pipeline, not user input
	cmd := exec.CommandContext(ctx, r.resolve(c.Name), c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Env = r.environment(c.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command",
		interfaces.F("command", c.Name),
		interfaces.F("args", strings.Join(c.Args, " ")))

	err := cmd.Run()
	result := &interfaces.RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%s exited with code %d: %s",
				c.Name, result.ExitCode, excerpt(result.Stderr))
		}
		result.ExitCode = -1
		return result, fmt.Errorf("failed to run %s: %w", c.Name, err)
	}

	result.ExitCode = 0
	return result, nil
}

// resolve finds the executable for a bare command name. exec.Command looks
// binaries up on the parent's PATH, which the prepended tool directories
// are deliberately not part of, so they are searched here first.
func (r *ExecRunner) resolve(name string) string {
	if strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	for _, dir := range r.extraPath {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate
		}
	}
	return name
}

// environment builds the child environment: the process environment with
// PATH extended by the provisioned tool directories, then per-command
// overrides. Later entries win for duplicate keys.
func (r *ExecRunner) environment(overrides map[string]string) []string {
	env := os.Environ()

	if len(r.extraPath) > 0 {
		sep := string(os.PathListSeparator)
		path := strings.Join(r.extraPath, sep) + sep + os.Getenv("PATH")
		env = append(env, "PATH="+path)
	}

	for key, value := range overrides {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	return env
}

// excerpt trims command stderr down to something that fits in one error line
func excerpt(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return "(no stderr)"
	}
	const limit = 400
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
