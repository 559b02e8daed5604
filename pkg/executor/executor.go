// Package executor runs remediation commands with a continue-on-error
// discipline: a later independent fix is still attempted even if an
// earlier one fails.
package executor

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

// RunFunc executes a single command string and returns its stdout, or
// an error carrying stderr/message. Injectable for tests.
type RunFunc func(ctx context.Context, command string) (string, error)

// ShellRun executes the command through `sh -c`, combining stdout and
// stderr the way an operator would see them in a terminal.
func ShellRun(ctx context.Context, command string) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	return strings.TrimRight(string(out), "\n"), err
}

// Batch aggregates one execution pass. OverallSuccess is true iff
// every result succeeded.
type Batch struct {
	Results        []model.ExecutionResult
	OverallSuccess bool
}

// Executor runs ordered command lists sequentially.
type Executor struct {
	run RunFunc
}

func New() *Executor {
	return &Executor{run: ShellRun}
}

// NewWithRunner builds an Executor with a custom runner.
func NewWithRunner(run RunFunc) *Executor {
	return &Executor{run: run}
}

// ExecuteAll runs every command in order, never retrying and never
// stopping early. Exactly one ExecutionResult is produced per input
// command, in input order, regardless of outcome.
func (e *Executor) ExecuteAll(ctx context.Context, commands []string) *Batch {
	batch := &Batch{OverallSuccess: true}
	for _, raw := range commands {
		command := Normalize(raw)
		output, err := e.run(ctx, command)

		result := model.ExecutionResult{
			Action:    command,
			Timestamp: time.Now().UTC(),
		}
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			if output != "" {
				result.Output = output
			}
			batch.OverallSuccess = false
			log.Warn().Str("command", command).Err(err).Msg("Remediation command failed")
		} else {
			result.Success = true
			result.Output = output
			log.Info().Str("command", command).Msg("Remediation command succeeded")
		}
		batch.Results = append(batch.Results, result)
	}
	return batch
}

// Normalize strips escape artifacts the model sometimes injects into
// command strings, such as backslash-escaped quotes that were meant
// literally.
func Normalize(command string) string {
	command = strings.TrimSpace(command)
	command = strings.ReplaceAll(command, `\"`, `"`)
	command = strings.ReplaceAll(command, `\'`, `'`)
	return command
}
