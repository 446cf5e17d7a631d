package runner

import (
	"context"
	"fmt"
	"sync"
)

// Reply is a canned response for a Fake command.
type Reply struct {
	Stdout string
	Stderr string
	Err    error
}

// Fake is a Runner that answers from canned replies keyed by Command.Key.
// It records every command it sees.
type Fake struct {
	mu      sync.Mutex
	replies map[string][]Reply
	calls   []Command

	// OnAttached, if set, handles attached commands.
	OnAttached func(cmd Command) error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{replies: map[string][]Reply{}}
}

// On queues a reply for the command line key. Replies for the same key are
// used in order; the last one repeats.
func (f *Fake) On(key string, reply Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[key] = append(f.replies[key], reply)
	return f
}

// Calls returns the commands run so far.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// Keys returns the command line keys run so far.
func (f *Fake) Keys() []string {
	var keys []string
	for _, c := range f.Calls() {
		keys = append(keys, c.Key())
	}
	return keys
}

// Output implements Runner.
func (f *Fake) Output(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)

	queue, ok := f.replies[cmd.Key()]
	if !ok || len(queue) == 0 {
		return Result{ExitCode: 1}, fmt.Errorf("unexpected command: %s", cmd.Key())
	}
	reply := queue[0]
	if len(queue) > 1 {
		f.replies[cmd.Key()] = queue[1:]
	}

	res := Result{Stdout: []byte(reply.Stdout), Stderr: []byte(reply.Stderr)}
	if reply.Err != nil {
		res.ExitCode = 1
	}
	return res, reply.Err
}

// Attached implements Runner.
func (f *Fake) Attached(_ context.Context, cmd Command) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handler := f.OnAttached
	f.mu.Unlock()

	if handler == nil {
		return nil
	}
	return handler(cmd)
}
