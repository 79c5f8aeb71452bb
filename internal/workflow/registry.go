// Package workflow provides the local workflow registry and the fallback
// processor that substitutes for the remote orchestration engine.
package workflow

import (
	"sync"

	"github.com/jayanthvn/taxmate/internal/types"
)

// Registry tracks locally-synthesized workflow executions by id. Reads and
// writes are atomic per key: a status read concurrent with the mock
// completion timer observes either the old or the new execution, never a
// partial update. Entries live for the process lifetime.
type Registry interface {
	// Get returns a snapshot of the execution, or false if the id is unknown.
	Get(workflowID string) (types.WorkflowExecution, bool)
	// Put stores or replaces the execution for its workflow id.
	Put(exec types.WorkflowExecution)
	// Update applies fn to the stored execution under the registry lock.
	// Returns false if the id is unknown; fn is not called in that case.
	Update(workflowID string, fn func(*types.WorkflowExecution)) bool
}

// NewMemoryRegistry returns an in-process Registry backed by a map.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{executions: make(map[string]types.WorkflowExecution)}
}

type memoryRegistry struct {
	mu         sync.RWMutex
	executions map[string]types.WorkflowExecution
}

func (r *memoryRegistry) Get(workflowID string) (types.WorkflowExecution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executions[workflowID]
	return exec, ok
}

func (r *memoryRegistry) Put(exec types.WorkflowExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions[exec.WorkflowID] = exec
}

func (r *memoryRegistry) Update(workflowID string, fn func(*types.WorkflowExecution)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executions[workflowID]
	if !ok {
		return false
	}
	fn(&exec)
	r.executions[workflowID] = exec
	return true
}
