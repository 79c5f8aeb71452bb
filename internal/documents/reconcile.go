package documents

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jayanthvn/taxmate/internal/types"
)

// reconcileConcurrency bounds the number of workflow status lookups a
// bulk reconciliation runs in parallel.
const reconcileConcurrency = 5

// Reconcile checks a processing document's workflow and, if it reached a
// terminal state, writes the outcome back onto the record. Documents that
// are already terminal, carry no workflow id, or whose workflow is still
// running (or unknown to the engine) are left untouched. The record is
// updated in place to reflect the persisted state.
func (s *Service) Reconcile(ctx context.Context, doc *types.DocumentRecord) error {
	if doc.Status != types.StatusProcessing || doc.WorkflowID == "" {
		return nil
	}
	exec := s.engine.Status(ctx, doc.WorkflowID)
	return s.applyTerminal(ctx, doc, exec)
}

func (s *Service) applyTerminal(ctx context.Context, doc *types.DocumentRecord, exec types.WorkflowExecution) error {
	switch {
	case exec.Status == types.WorkflowCompleted && exec.Output != nil:
		applied, err := s.store.ApplyWorkflowResult(ctx, doc.ID, types.StatusProcessed, exec.Output)
		if err != nil {
			return err
		}
		if applied {
			doc.Status = types.StatusProcessed
			doc.ExtractedData = exec.Output.ExtractedData
			doc.ValidationResults = exec.Output.ValidationResults
			doc.ComplianceStatus = exec.Output.ComplianceStatus
		}
	case exec.Status == types.WorkflowFailed:
		applied, err := s.store.ApplyWorkflowResult(ctx, doc.ID, types.StatusError, nil)
		if err != nil {
			return err
		}
		if applied {
			doc.Status = types.StatusError
		}
	}
	// RUNNING, NOT_FOUND and COMPLETED-without-output leave the record as is.
	return nil
}

// ReconcileAll reconciles a batch of documents with bounded concurrency.
// A failure on one document is logged and never aborts its siblings.
func (s *Service) ReconcileAll(ctx context.Context, docs []types.DocumentRecord) {
	// A plain group: workers only log their errors, so there is nothing
	// for a derived context to cancel on.
	var group errgroup.Group
	group.SetLimit(reconcileConcurrency)

	for i := range docs {
		doc := &docs[i]
		group.Go(func() error {
			if err := s.Reconcile(ctx, doc); err != nil {
				log.Printf("[documents] failed to reconcile document %s: %v", doc.ID, err)
			}
			return nil
		})
	}
	_ = group.Wait()
}
