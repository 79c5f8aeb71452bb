package server

import (
	"net/http"

	"github.com/jayanthvn/taxmate/internal/server/middleware"
	"github.com/jayanthvn/taxmate/internal/types"
)

// handleWorkflowStatus returns the current state of a workflow execution.
// Terminal results are written back to the linked document as a side
// effect. Unknown ids report NOT_FOUND with a 404.
func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserID(r); err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	workflowID := r.PathValue("id")
	if workflowID == "" {
		s.errorResponse(w, http.StatusBadRequest, "Workflow id is required")
		return
	}

	exec := s.docs.WorkflowStatus(r.Context(), workflowID)

	status := http.StatusOK
	if exec.Status == types.WorkflowNotFound {
		status = http.StatusNotFound
	}
	s.jsonResponse(w, status, exec)
}
