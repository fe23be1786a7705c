package allocation

import (
	"sync"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// Registry keeps the open allocation dialog of every Telegram user.
type Registry struct {
	mu        sync.Mutex
	workflows map[int64]*Workflow
	opts      []Option
}

// NewRegistry creates an empty registry. The options are applied to every new workflow.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{workflows: make(map[int64]*Workflow), opts: opts}
}

// Open starts a dialog for the project, replacing one the user left open for another project.
// Reopening the same project keeps its state.
func (r *Registry) Open(tgID int64, project models.Project) *Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workflows[tgID]; ok && w.Project().ID == project.ID {
		return w
	}
	w := NewWorkflow(project, r.opts...)
	r.workflows[tgID] = w
	return w
}

// Get returns the open dialog of the user.
func (r *Registry) Get(tgID int64) (*Workflow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workflows[tgID]
	return w, ok
}

// Close drops the dialog of the user.
func (r *Registry) Close(tgID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workflows, tgID)
}
