package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/bootpe/pluginmart/pkg/download"
)

// Kind names a lifecycle operation.
type Kind string

const (
	KindInstall  Kind = "install"
	KindUpdate   Kind = "update"
	KindEnable   Kind = "enable"
	KindDisable  Kind = "disable"
	KindDownload Kind = "download"
)

// Task is a transient record of one in-flight operation. It exists from
// the moment the operation is accepted until its background work
// finishes, success or failure.
type Task struct {
	ID       string    `json:"id"`
	Identity string    `json:"identity"`
	Kind     Kind      `json:"kind"`
	Plugin   string    `json:"plugin"`
	Started  time.Time `json:"started"`

	// Progress is the task's transfer record, present only while the
	// engine is streaming its download.
	Progress *download.Progress `json:"progress,omitempty"`
}

func taskKey(identity string, kind Kind) string {
	return identity + "_" + string(kind)
}

func newTask(identity string, kind Kind, pluginName string) Task {
	return Task{
		ID:       uuid.NewString(),
		Identity: identity,
		Kind:     kind,
		Plugin:   pluginName,
		Started:  time.Now(),
	}
}

// begin inserts a task for (identity, kind). It reports false when a task
// with the same key is already running.
func (o *Orchestrator) begin(t Task) bool {
	key := taskKey(t.Identity, t.Kind)

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.tasks[key]; exists {
		return false
	}
	o.tasks[key] = t
	o.metrics.TasksInFlight.Inc()
	return true
}

// finish removes the task for (identity, kind). Always called via defer
// from the background job, so the entry is cleared on any outcome.
func (o *Orchestrator) finish(t Task) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.tasks, taskKey(t.Identity, t.Kind))
	o.metrics.TasksInFlight.Dec()
}

// InFlight reports whether an operation of the given kind is currently
// running for the plugin identity.
func (o *Orchestrator) InFlight(identity string, kind Kind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.tasks[taskKey(identity, kind)]
	return ok
}

// Tasks returns a snapshot of all in-flight tasks, each annotated with
// its live transfer progress when a download is running under its id.
func (o *Orchestrator) Tasks() []Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Task, 0, len(o.tasks))
	for _, t := range o.tasks {
		if p, ok := o.cfg.Engine.Progress(t.ID); ok {
			t.Progress = &p
		}
		out = append(out, t)
	}
	return out
}
