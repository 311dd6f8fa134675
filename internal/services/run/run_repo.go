package run

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RunRepo handles database operations for run records and report logs
type RunRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new run repository
func NewRunRepo(db *sqlx.DB) *RunRepo {
	return &RunRepo{db: db}
}

// CreateRun records a newly started orchestration run
func (r *RunRepo) CreateRun(ctx context.Context, params CreateRunParams) (*RunRecord, error) {
	query := `
		INSERT INTO sandbox_runs (workflow_id, run_label, cluster, task_template, subnets)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, workflow_id, run_label, cluster, task_template, subnets, created_at
	`

	var record RunRecord
	err := r.db.GetContext(ctx, &record, query,
		params.WorkflowID, params.RunLabel, params.Cluster, params.TaskTemplate, pq.StringArray(params.Subnets))
	if err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	return &record, nil
}

// GetRunByWorkflowID retrieves a run record by its workflow identifier
func (r *RunRepo) GetRunByWorkflowID(ctx context.Context, workflowID string) (*RunRecord, error) {
	query := `
		SELECT id, workflow_id, run_label, cluster, task_template, subnets, created_at
		FROM sandbox_runs
		WHERE workflow_id = $1
	`

	var record RunRecord
	err := r.db.GetContext(ctx, &record, query, workflowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found")
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &record, nil
}

// ListRuns returns recorded runs, most recent first
func (r *RunRepo) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, workflow_id, run_label, cluster, task_template, subnets, created_at
		FROM sandbox_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	records := []RunRecord{}
	err := r.db.SelectContext(ctx, &records, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return records, nil
}

// AppendReport logs a received completion report against a workflow
func (r *RunRepo) AppendReport(ctx context.Context, workflowID, sandboxID, status, resultPayload string) (*ReportRecord, error) {
	query := `
		INSERT INTO sandbox_report_log (workflow_id, sandbox_id, status, result_payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, workflow_id, sandbox_id, status, result_payload, received_at
	`

	var record ReportRecord
	err := r.db.GetContext(ctx, &record, query, workflowID, sandboxID, status, resultPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to append report: %w", err)
	}

	return &record, nil
}

// ListReports returns all reports received for a workflow, oldest first
func (r *RunRepo) ListReports(ctx context.Context, workflowID string) ([]ReportRecord, error) {
	query := `
		SELECT id, workflow_id, sandbox_id, status, result_payload, received_at
		FROM sandbox_report_log
		WHERE workflow_id = $1
		ORDER BY received_at ASC
	`

	records := []ReportRecord{}
	err := r.db.SelectContext(ctx, &records, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return records, nil
}
