package workflow

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/jayanthvn/taxmate/internal/types"
)

// Scanner turns raw document bytes into type-specific extracted fields.
// Implementations may call a remote AI service; errors are handled by
// falling back to synthetic generation.
type Scanner interface {
	Analyze(ctx context.Context, data []byte, docType types.DocumentType) (map[string]any, error)
}

// Downloader fetches the stored document bytes for direct extraction.
type Downloader func(ctx context.Context, url string) ([]byte, error)

// DefaultMockDelay is how long a synthetic workflow stays RUNNING before
// the completion timer fires.
const DefaultMockDelay = 5 * time.Second

// maxDownloadBytes bounds how much of a stored document is read back for
// direct extraction.
const maxDownloadBytes = 10 << 20

// ProcessorConfig configures the fallback processor. A nil config or zero
// field uses defaults.
type ProcessorConfig struct {
	// MockDelay overrides DefaultMockDelay, mainly for tests.
	MockDelay time.Duration
	// Download overrides the HTTP downloader used by direct extraction.
	Download Downloader
}

// Processor produces a usable workflow result when the remote engine is
// unavailable. It first attempts direct extraction against the stored file;
// failing that it registers a synthetic workflow that completes on a timer.
// Start never fails: the caller always gets a workflow that converges to a
// terminal state.
type Processor struct {
	registry  Registry
	scanner   Scanner
	download  Downloader
	mockDelay time.Duration
}

// NewProcessor creates a fallback processor. scanner may be nil, in which
// case only the synthetic path is available.
func NewProcessor(registry Registry, scanner Scanner, cfg *ProcessorConfig) *Processor {
	p := &Processor{
		registry:  registry,
		scanner:   scanner,
		download:  downloadURL,
		mockDelay: DefaultMockDelay,
	}
	if cfg != nil {
		if cfg.MockDelay > 0 {
			p.mockDelay = cfg.MockDelay
		}
		if cfg.Download != nil {
			p.download = cfg.Download
		}
	}
	return p
}

// Start produces a workflow for the document without the remote engine.
func (p *Processor) Start(ctx context.Context, doc types.DocumentSnapshot) types.WorkflowRun {
	if doc.FileURL != "" && p.scanner != nil {
		run, err := p.startDirect(ctx, doc)
		if err == nil {
			return run
		}
		log.Printf("[workflow] direct extraction failed for document %s, using mock workflow: %v", doc.ID, err)
	}
	return p.startMock(doc)
}

// Status returns the registry's view of a workflow. Unknown ids yield
// NOT_FOUND; that status is never stored.
func (p *Processor) Status(workflowID string) types.WorkflowExecution {
	exec, ok := p.registry.Get(workflowID)
	if !ok {
		return types.WorkflowExecution{
			WorkflowID: workflowID,
			Status:     types.WorkflowNotFound,
		}
	}
	return exec
}

// startDirect downloads the stored file, runs extraction plus local
// validation and compliance checks, and registers an already-completed
// workflow with the result.
func (p *Processor) startDirect(ctx context.Context, doc types.DocumentSnapshot) (types.WorkflowRun, error) {
	started := time.Now()

	data, err := p.download(ctx, doc.FileURL)
	if err != nil {
		return types.WorkflowRun{}, fmt.Errorf("failed to download document: %w", err)
	}

	extracted, err := p.scanner.Analyze(ctx, data, doc.Type)
	if err != nil {
		return types.WorkflowRun{}, fmt.Errorf("extraction failed: %w", err)
	}

	output := &types.ExtractionOutput{
		DocumentID:        doc.ID,
		ExtractedData:     extracted,
		ValidationResults: ValidateExtraction(doc.Type, extracted),
		ComplianceStatus:  CheckCompliance(doc.Type, extracted),
		ProcessingTime:    time.Since(started).Seconds(),
	}

	workflowID := fmt.Sprintf("direct_%d_%s", started.UnixMilli(), randomSuffix(8))
	endTime := time.Now()
	p.registry.Put(types.WorkflowExecution{
		WorkflowID: workflowID,
		Status:     types.WorkflowCompleted,
		StartTime:  started,
		EndTime:    &endTime,
		Output:     output,
		Document:   doc,
	})

	log.Printf("[workflow] completed direct extraction workflow %s for document %s", workflowID, doc.ID)
	return types.WorkflowRun{
		WorkflowID: workflowID,
		Status:     types.WorkflowCompleted,
		StartTime:  started,
	}, nil
}

// startMock registers a synthetic RUNNING workflow and schedules its
// completion. The timer races with concurrent status reads; the registry's
// per-key atomic update keeps the transition exactly-once and monotonic.
func (p *Processor) startMock(doc types.DocumentSnapshot) types.WorkflowRun {
	started := time.Now()
	workflowID := fmt.Sprintf("mock_%d_%s", started.UnixMilli(), randomSuffix(8))

	p.registry.Put(types.WorkflowExecution{
		WorkflowID: workflowID,
		Status:     types.WorkflowRunning,
		StartTime:  started,
		Document:   doc,
	})

	time.AfterFunc(p.mockDelay, func() {
		p.registry.Update(workflowID, func(exec *types.WorkflowExecution) {
			if exec.Status != types.WorkflowRunning {
				return
			}
			now := time.Now()
			exec.Status = types.WorkflowCompleted
			exec.EndTime = &now
			exec.Output = mockOutput(exec.Document)
		})
		log.Printf("[workflow] mock workflow %s completed", workflowID)
	})

	log.Printf("[workflow] started mock workflow %s for document %s", workflowID, doc.ID)
	return types.WorkflowRun{
		WorkflowID: workflowID,
		Status:     types.WorkflowRunning,
		StartTime:  started,
	}
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}

// downloadURL is the default Downloader, fetching the stored object over
// HTTP with a bounded read.
func downloadURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
