package run

import (
	"context"
	"fmt"

	"github.com/curaious/sandpilot/internal/sandbox"
)

const defaultListLimit = 100

// RunService handles business logic for run records
type RunService struct {
	repo *RunRepo
}

// NewRunService creates a new run service
func NewRunService(repo *RunRepo) *RunService {
	return &RunService{repo: repo}
}

// RecordRun validates and stores a newly started run
func (s *RunService) RecordRun(ctx context.Context, params CreateRunParams) (*RunRecord, error) {
	if params.WorkflowID == "" {
		return nil, fmt.Errorf("workflow_id is required")
	}
	if params.RunLabel == "" {
		return nil, fmt.Errorf("run_label is required")
	}

	return s.repo.CreateRun(ctx, params)
}

// RecordReport validates and logs a received completion report
func (s *RunService) RecordReport(ctx context.Context, workflowID, sandboxID string, status sandbox.Status, resultPayload string) (*ReportRecord, error) {
	if workflowID == "" {
		return nil, fmt.Errorf("workflow_id is required")
	}
	if sandboxID == "" {
		return nil, fmt.Errorf("sandbox_id is required")
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown sandbox status %q", status)
	}

	return s.repo.AppendReport(ctx, workflowID, sandboxID, string(status), resultPayload)
}

// GetRun returns the run record for a workflow
func (s *RunService) GetRun(ctx context.Context, workflowID string) (*RunRecord, error) {
	return s.repo.GetRunByWorkflowID(ctx, workflowID)
}

// ListRuns returns the most recent run records
func (s *RunService) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	return s.repo.ListRuns(ctx, limit)
}

// ListReports returns the report log for a workflow
func (s *RunService) ListReports(ctx context.Context, workflowID string) ([]ReportRecord, error) {
	return s.repo.ListReports(ctx, workflowID)
}
