// Package shell runs build commands through the system shell.
package shell

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const maxLineSize = 1024 * 1024

var _ ports.BuildCommand = (*Executor)(nil)

// Executor implements ports.BuildCommand using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Run executes command in dir. Stdout lines are logged at info and stderr lines at warn;
// both are also copied to the vertex carried by ctx, if any. Output is drained by one
// goroutine per stream while the process runs.
func (e *Executor) Run(ctx context.Context, dir, command string) error {
	if strings.TrimSpace(command) == "" {
		return zerr.Wrap(domain.ErrNoBuildCommand, "empty build command")
	}

	name, flag := shell()
	cmd := exec.CommandContext(ctx, name, flag, command) //nolint:gosec // user provided command
	cmd.Dir = dir
	cmd.Env = os.Environ()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return zerr.Wrap(err, "failed to open stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return zerr.Wrap(err, "failed to open stderr pipe")
	}

	var outCopy, errCopy io.Writer = io.Discard, io.Discard
	if v, ok := ports.VertexFromContext(ctx); ok {
		outCopy, errCopy = v.Stdout(), v.Stderr()
	}

	e.logger.WithField("dir", dir).Debug("running build command: " + command)

	if err := cmd.Start(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to start build command"), "command", command)
	}

	var g errgroup.Group
	g.Go(func() error { return drain(stdout, outCopy, e.logger.Info) })
	g.Go(func() error { return drain(stderr, errCopy, e.logger.Warn) })
	drainErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if exitCode < 0 {
			exitCode = 1
		}
		return zerr.With(zerr.Wrap(&domain.BuildError{ExitCode: exitCode, Err: err}, "build command failed"), "command", command)
	}
	if drainErr != nil {
		return zerr.Wrap(drainErr, "failed to read build output")
	}
	return nil
}

// drain forwards every line of r to log and copies it, newline terminated, to w.
func drain(r io.Reader, w io.Writer, log func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		log(line)
		_, _ = io.WriteString(w, line+"\n")
	}
	if err := scanner.Err(); err != nil {
		// Keep reading so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

func shell() (name, flag string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}
