package types

import "time"

// WorkflowStatus is the lifecycle status of a workflow execution.
type WorkflowStatus string

// Workflow statuses mirror the remote engine's vocabulary. NOT_FOUND is
// only ever returned for unknown ids; it is never stored.
const (
	WorkflowRunning   WorkflowStatus = "RUNNING"
	WorkflowCompleted WorkflowStatus = "COMPLETED"
	WorkflowFailed    WorkflowStatus = "FAILED"
	WorkflowNotFound  WorkflowStatus = "NOT_FOUND"
)

// Terminal reports whether the status can no longer change.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowCompleted || s == WorkflowFailed
}

// WorkflowRun is the result of starting a workflow, remote or local.
type WorkflowRun struct {
	WorkflowID string         `json:"workflowId"`
	Status     WorkflowStatus `json:"status"`
	StartTime  time.Time      `json:"startTime"`
}

// WorkflowExecution is the full state of a workflow as held in the registry
// or reported by the remote engine. Once Status is terminal it never reverts.
type WorkflowExecution struct {
	WorkflowID string            `json:"workflowId"`
	Status     WorkflowStatus    `json:"status"`
	StartTime  time.Time         `json:"startTime,omitempty"`
	EndTime    *time.Time        `json:"endTime,omitempty"`
	Output     *ExtractionOutput `json:"output,omitempty"`
	Document   DocumentSnapshot  `json:"-"`
}

// ExtractionOutput is the output of a completed workflow: the extracted
// fields plus validation and compliance verdicts. ExtractedData and
// ValidationResults are type-dependent mappings copied verbatim into the
// document record by the reconciler.
type ExtractionOutput struct {
	DocumentID        string            `json:"documentId,omitempty"`
	ExtractedData     map[string]any    `json:"extractedData,omitempty"`
	ValidationResults map[string]any    `json:"validationResults,omitempty"`
	ComplianceStatus  *ComplianceStatus `json:"complianceStatus,omitempty"`
	ProcessingTime    float64           `json:"processingTime,omitempty"`
}

// ComplianceStatus holds tax-regulation compliance findings for a document.
type ComplianceStatus struct {
	Compliant       bool     `json:"compliant"`
	Flags           []string `json:"flags"`
	Recommendations []string `json:"recommendations"`
}
