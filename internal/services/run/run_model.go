package run

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RunRecord is one orchestration run as recorded for operators. The workflow
// itself is the source of truth; this table exists so runs can be listed and
// inspected without walking Temporal history.
type RunRecord struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	WorkflowID   string         `db:"workflow_id" json:"workflow_id"`
	RunLabel     string         `db:"run_label" json:"run_label"`
	Cluster      string         `db:"cluster" json:"cluster"`
	TaskTemplate string         `db:"task_template" json:"task_template"`
	Subnets      pq.StringArray `db:"subnets" json:"subnets"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// ReportRecord is one received completion report, appended as reports arrive
// at the gateway. Multiple reports per workflow are expected; the workflow's
// own correlation decides which one matters.
type ReportRecord struct {
	ID            uuid.UUID `db:"id" json:"id"`
	WorkflowID    string    `db:"workflow_id" json:"workflow_id"`
	SandboxID     string    `db:"sandbox_id" json:"sandbox_id"`
	Status        string    `db:"status" json:"status"`
	ResultPayload string    `db:"result_payload" json:"result_payload"`
	ReceivedAt    time.Time `db:"received_at" json:"received_at"`
}

// CreateRunParams carries what the gateway knows when a run starts.
type CreateRunParams struct {
	WorkflowID   string
	RunLabel     string
	Cluster      string
	TaskTemplate string
	Subnets      []string
}
