package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alessio/shellescape"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/utils"
)

// Environment variables set for every migration process.
const (
	EnvProjectRoot   = "MIGRATE_PROJECT_ROOT"
	EnvMigrationsDir = "MIGRATE_MIGRATIONS_DIR"
	EnvID            = "MIGRATE_ID"
	EnvDryRun        = "MIGRATE_DRY_RUN"
)

// Processes that exit while a descendant still holds their stdout or stderr
// open are given this long before the pipes are closed.
const pipeDrainDelay = 2 * time.Second

// maxLogLineLen bounds the size of trace-level output lines.
const maxLogLineLen = 4096

type Request struct {
	Migration     catalog.Migration
	ProjectRoot   string
	MigrationsDir string
	DryRun        bool
}

// Environment returns the variables added to the parent's environment.
func (r Request) Environment() []string {
	return []string{
		EnvProjectRoot + "=" + r.ProjectRoot,
		EnvMigrationsDir + "=" + r.MigrationsDir,
		EnvID + "=" + r.Migration.ID,
		EnvDryRun + "=" + strconv.FormatBool(r.DryRun),
	}
}

// CommandLine renders a shell command that runs the migration the same way the
// executor does.
func (r Request) CommandLine() string {
	args := append([]string{"cd", r.ProjectRoot, "&&"}, r.Environment()...)
	args = append(args, r.Migration.Path)
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg == "&&" {
			quoted[i] = arg
			continue
		}
		quoted[i] = shellescape.Quote(arg)
	}
	return strings.Join(quoted, " ")
}

type Options struct {
	// Stdout and Stderr receive the process output as it's written. Either
	// may be nil.
	Stdout io.Writer
	Stderr io.Writer
	// Stdin is connected to the process. The null device is used when nil.
	Stdin io.Reader
	// Timeout is unlimited when zero.
	Timeout time.Duration
	// GracePeriod is how long a process has to exit after SIGTERM before it
	// is killed. The process is killed immediately when zero.
	GracePeriod time.Duration
	// MaxOutput limits the captured output. Unlimited when zero.
	MaxOutput uint64
}

// Executor runs migration files as child processes. The file's shebang line
// selects the interpreter.
type Executor struct {
	logger  zerolog.Logger
	options Options
}

func NewExecutor(logger zerolog.Logger, options Options) *Executor {
	return &Executor{
		logger: logger.With().
			Str("component", "executor").
			Logger(),
		options: options,
	}
}

// Run launches the migration and waits for it to exit. Failures are reported
// through the Result rather than an error. In dry-run mode nothing is
// launched.
func (e *Executor) Run(ctx context.Context, req Request) Result {
	result := Result{
		MigrationID: req.Migration.ID,
		ExitCode:    -1,
		Command:     req.CommandLine(),
	}
	logger := e.logger.With().
		Str("migration_id", req.Migration.ID).
		Logger()

	if req.DryRun {
		logger.Debug().Msg("dry run, not launching migration")
		result.Outcome = OutcomeWouldApply
		return result
	}

	runCtx := ctx
	if e.options.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.options.Timeout)
		defer cancel()
	}

	output := newCapture(e.options.MaxOutput)
	stdoutLog := e.outputLogger(logger, "stdout")
	stderrLog := e.outputLogger(logger, "stderr")

	cmd := exec.CommandContext(runCtx, req.Migration.Path)
	cmd.Dir = req.ProjectRoot
	cmd.Env = append(os.Environ(), req.Environment()...)
	cmd.Stdin = e.options.Stdin
	cmd.Stdout = io.MultiWriter(nonNil(e.options.Stdout), output, stdoutLog)
	cmd.Stderr = io.MultiWriter(nonNil(e.options.Stderr), output, stderrLog)
	cmd.WaitDelay = pipeDrainDelay
	if e.options.GracePeriod > 0 {
		cmd.Cancel = func() error {
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		cmd.WaitDelay = e.options.GracePeriod
	}

	logger.Debug().
		Str("command", result.Command).
		Msg("launching migration")

	result.StartedAt = time.Now()
	err := cmd.Start()
	started := err == nil
	if started {
		err = cmd.Wait()
	} else if runCtx.Err() == nil {
		result.Err = fmt.Errorf("failed to start migration %s: %w", req.Migration.FileName, err)
	}
	result.Duration = time.Since(result.StartedAt)

	stdoutLog.Close()
	stderrLog.Close()
	result.Output = output.String()
	result.DroppedOutput = output.Dropped()

	var exitErr *exec.ExitError
	switch {
	case !started:
		result.Outcome = OutcomeFailed
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
		if err != nil {
			logger.Warn().Msg("migration exited but left its output open, closed it")
		}
		result.Outcome = OutcomeSucceeded
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.Outcome = OutcomeFailed
		result.ExitCode = exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			result.Signal = unix.SignalName(status.Signal())
		}
	default:
		// Stopped by the context, after which the migration exited 0.
		result.Outcome = OutcomeFailed
		result.ExitCode = 0
	}

	// A migration that exited cleanly before the context ended keeps its
	// success.
	if !result.Succeeded() && result.Err == nil {
		switch {
		case ctx.Err() != nil:
			result.Interrupted = true
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			result.TimedOut = true
		}
	}

	event := logger.Debug()
	if !result.Succeeded() {
		event = logger.Warn()
	}
	event.Str("outcome", string(result.Outcome)).
		Int("exit_code", result.ExitCode).
		Str("signal", result.Signal).
		Bool("timed_out", result.TimedOut).
		Bool("interrupted", result.Interrupted).
		Dur("duration", result.Duration).
		Msg("migration exited")

	return result
}

func (e *Executor) outputLogger(logger zerolog.Logger, stream string) *utils.LineWriter {
	return utils.NewLimitedLineWriter(maxLogLineLen, func(line []byte) error {
		logger.Trace().
			Str("stream", stream).
			Bytes("line", line).
			Msg("migration output")
		return nil
	})
}

func nonNil(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
