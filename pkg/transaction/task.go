package transaction

import (
	"context"
	"sync"

	"github.com/go-drift/navsync/pkg/errors"
)

// Task is a handle to asynchronous transaction work, such as an animated
// presentation change. It completes exactly once. Completion callbacks of the
// transaction it carries fire when it completes, on every path: normal,
// animated, suppressed or canceled.
//
// Task is safe for concurrent use; Wait may be called from any goroutine.
type Task struct {
	mu       sync.Mutex
	done     chan struct{}
	finished bool
	canceled bool
	tx       Transaction
	onDone   []func()
	onCancel func()
}

func newTask(tx Transaction) *Task {
	return &Task{done: make(chan struct{}), tx: tx}
}

// NewTask returns a pending task carrying tx. The creator finishes it with
// Complete.
func NewTask(tx Transaction) *Task {
	return newTask(tx)
}

// Complete marks the task done and fires its completions and OnDone
// callbacks. Completing a finished task is a no-op.
func (t *Task) Complete() {
	t.complete()
}

// Completed returns a task that is already done. Completion callbacks of tx
// fire before Completed returns.
func Completed(tx Transaction) *Task {
	t := newTask(tx)
	t.complete()
	return t
}

// Done returns a channel closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// IsDone reports whether the task has completed.
func (t *Task) IsDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// IsCanceled reports whether the task was canceled before its work finished.
func (t *Task) IsCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Transaction returns the transaction the task carries.
func (t *Task) Transaction() Transaction {
	return t.tx
}

// OnDone registers fn to run when the task completes. If the task is already
// done, fn runs immediately on the calling goroutine.
func (t *Task) OnDone(fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	if !t.finished {
		t.onDone = append(t.onDone, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn()
}

// Wait blocks until the task completes or ctx is done. It returns
// errors.ErrTaskCanceled when the task was canceled, or ctx.Err().
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		if t.IsCanceled() {
			return errors.ErrTaskCanceled
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel finishes the task early. Work that has not started is skipped;
// running work is told to stop. Completion callbacks still fire once.
// Canceling a finished task is a no-op.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.finished || t.canceled {
		t.mu.Unlock()
		return
	}
	t.canceled = true
	stop := t.onCancel
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	t.complete()
}

func (t *Task) setOnCancel(fn func()) {
	t.mu.Lock()
	t.onCancel = fn
	t.mu.Unlock()
}

func (t *Task) complete() {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	callbacks := t.onDone
	t.onDone = nil
	t.onCancel = nil
	close(t.done)
	t.mu.Unlock()

	t.tx.FireCompletions()
	for _, fn := range callbacks {
		fn()
	}
}

// Then returns a task that starts next once t has completed and finishes
// when the task next returns finishes. run decides where next executes; a
// nil run executes it on the goroutine that completes t. Canceling the
// returned task before next has started skips next; canceling it later
// cancels next's task. If next's task ends canceled, so does the returned
// task.
func (t *Task) Then(run func(fn func()), next func() *Task) *Task {
	joined := newTask(New())
	start := func() {
		if joined.IsDone() {
			return
		}
		n := next()
		if n == nil {
			joined.complete()
			return
		}
		joined.setOnCancel(n.Cancel)
		n.OnDone(func() {
			if n.IsCanceled() {
				joined.Cancel()
				return
			}
			joined.complete()
		})
	}
	t.OnDone(func() {
		if run != nil {
			run(start)
			return
		}
		start()
	})
	return joined
}

// All returns a task that completes after every task in tasks. Nil entries
// are ignored. The joined task carries no transaction of its own.
func All(tasks ...*Task) *Task {
	joined := newTask(New())
	var pending []*Task
	for _, t := range tasks {
		if t != nil {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		joined.complete()
		return joined
	}

	var mu sync.Mutex
	remaining := len(pending)
	for _, t := range pending {
		t.OnDone(func() {
			mu.Lock()
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				joined.complete()
			}
		})
	}
	return joined
}
