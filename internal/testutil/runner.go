package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/andperf/andperf/internal/sys/shell"
)

type scripted struct {
	out string
	err error
}

// Runner is a scripted shell.Runner. Each command maps to a sequence of
// responses; once the sequence is exhausted the last response repeats.
// Unscripted commands fail with a *shell.CommandError.
type Runner struct {
	mu        sync.Mutex
	responses map[string][]scripted
	served    map[string]int
	calls     []string

	// OnExecute, if set, is called before a response is served.
	OnExecute func(command string)
}

// NewRunner creates an empty scripted runner.
func NewRunner() *Runner {
	return &Runner{
		responses: make(map[string][]scripted),
		served:    make(map[string]int),
	}
}

// Set appends successful outputs for command.
func (r *Runner) Set(command string, outputs ...string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, out := range outputs {
		r.responses[command] = append(r.responses[command], scripted{out: out})
	}
	return r
}

// Fail appends a failing response for command.
func (r *Runner) Fail(command string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[command] = append(r.responses[command], scripted{
		err: &shell.CommandError{Command: command, ExitCode: 1, Err: errors.New("scripted failure")},
	})
	return r
}

// Execute implements shell.Runner.
func (r *Runner) Execute(ctx context.Context, command string) (string, error) {
	if r.OnExecute != nil {
		r.OnExecute(command)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, command)

	seq := r.responses[command]
	if len(seq) == 0 {
		return "", &shell.CommandError{Command: command, ExitCode: 127, Err: errors.New("unscripted command")}
	}

	idx := r.served[command]
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	r.served[command]++

	resp := seq[idx]
	return resp.out, resp.err
}

// Calls returns the commands executed so far, in order.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how many times command was executed.
func (r *Runner) Count(command string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == command {
			n++
		}
	}
	return n
}
