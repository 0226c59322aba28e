package transaction

import (
	"sync"

	"github.com/go-drift/navsync/pkg/animation"
	"github.com/go-drift/navsync/pkg/errors"
)

// Performer applies transactions to units of work.
//
// Work submitted for the same key runs strictly one after another: a new
// Perform for a busy key waits until the previous task for that key has
// completed, so two animations never race on one presentation. Work for
// different keys runs independently.
//
// Performer belongs to the execution context that steps animation tickers.
type Performer struct {
	mu    sync.Mutex
	lanes map[any]*lane
}

type lane struct {
	running *Task
	queue   []*job
}

type job struct {
	task *Task
	body func()
}

// NewPerformer creates an idle performer.
func NewPerformer() *Performer {
	return &Performer{lanes: make(map[any]*lane)}
}

// Perform runs body under tx for key and returns the task tracking it.
//
// Effects by transaction:
//   - animated: body runs, then an animation.Controller runs the spec; the
//     task completes when the controller completes.
//   - animations disabled, or no animation: body runs and the task
//     completes immediately.
//
// A nil body is allowed; the task then only represents the effect.
func (p *Performer) Perform(key any, tx Transaction, body func()) *Task {
	j := &job{task: newTask(tx), body: body}

	p.mu.Lock()
	if p.lanes == nil {
		p.lanes = make(map[any]*lane)
	}
	l := p.lanes[key]
	if l == nil {
		l = &lane{}
		p.lanes[key] = l
	}
	if l.running != nil {
		l.queue = append(l.queue, j)
		p.mu.Unlock()
		return j.task
	}
	l.running = j.task
	p.mu.Unlock()

	p.start(key, j)
	return j.task
}

// Active reports whether work for key is running or queued.
func (p *Performer) Active(key any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.lanes[key]
	return l != nil && (l.running != nil || len(l.queue) > 0)
}

func (p *Performer) start(key any, j *job) {
	task := j.task
	task.OnDone(func() { p.advance(key, task) })

	if task.IsDone() {
		return
	}

	if j.body != nil {
		func() {
			defer errors.Recover("transaction.Performer.Perform")
			j.body()
		}()
	}

	spec := task.tx.Animation()
	if spec == nil {
		task.complete()
		return
	}

	controller := animation.NewController(spec)
	task.setOnCancel(controller.Finish)
	controller.AddStatusListener(func(status animation.Status) {
		if status == animation.StatusCompleted {
			controller.Dispose()
			task.complete()
		}
	})
	controller.Forward()
}

// advance starts the next queued job for key once task has finished.
func (p *Performer) advance(key any, task *Task) {
	p.mu.Lock()
	l := p.lanes[key]
	if l == nil || l.running != task {
		p.mu.Unlock()
		return
	}
	for len(l.queue) > 0 {
		next := l.queue[0]
		l.queue = l.queue[1:]
		if next.task.IsDone() {
			// Canceled while queued: body is skipped.
			continue
		}
		l.running = next.task
		p.mu.Unlock()
		p.start(key, next)
		return
	}
	l.running = nil
	delete(p.lanes, key)
	p.mu.Unlock()
}
