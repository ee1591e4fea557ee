package executor

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

type Outcome string

const (
	OutcomeSucceeded  Outcome = "succeeded"
	OutcomeFailed     Outcome = "failed"
	OutcomeWouldApply Outcome = "would_apply"
)

// Result is the outcome of running one migration.
type Result struct {
	MigrationID string  `json:"migration_id"`
	Outcome     Outcome `json:"outcome"`
	// ExitCode is -1 when the process didn't exit normally.
	ExitCode int `json:"exit_code"`
	// Signal is the name of the signal that terminated the process, if any.
	Signal      string `json:"signal,omitempty"`
	TimedOut    bool   `json:"timed_out,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
	// Output is the combined stdout and stderr of the process. DroppedOutput
	// counts bytes discarded from the front when output exceeded the capture
	// limit.
	Output        string        `json:"output,omitempty"`
	DroppedOutput int64         `json:"dropped_output,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	// Command is a shell command line that reproduces the run.
	Command string `json:"command,omitempty"`
	// Err is set when the process couldn't be started.
	Err error `json:"-"`
}

func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// Reason describes why a failed migration failed.
func (r Result) Reason() string {
	switch {
	case r.Outcome != OutcomeFailed:
		return string(r.Outcome)
	case r.Err != nil:
		return r.Err.Error()
	case r.Interrupted:
		return "interrupted"
	case r.TimedOut:
		return fmt.Sprintf("timed out after %s", r.Duration.Round(time.Millisecond))
	case r.Signal != "":
		return fmt.Sprintf("terminated by %s", r.Signal)
	default:
		return fmt.Sprintf("exited with code %d", r.ExitCode)
	}
}

// OutputSummary is a short human-readable description of the captured output
// size.
func (r Result) OutputSummary() string {
	size := humanize.IBytes(uint64(len(r.Output)))
	if r.DroppedOutput > 0 {
		return fmt.Sprintf("last %s shown, %s dropped", size, humanize.IBytes(uint64(r.DroppedOutput)))
	}
	return size
}
