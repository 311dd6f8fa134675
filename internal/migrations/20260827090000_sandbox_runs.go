package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.addMigration(&migration{
		version: "20260827090000",
		up:      mig_20260827090000_sandbox_runs_up,
		down:    mig_20260827090000_sandbox_runs_down,
	})
}

func mig_20260827090000_sandbox_runs_up(tx *sqlx.Tx) error {
	// Create sandbox_runs table
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sandbox_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			workflow_id VARCHAR(255) NOT NULL UNIQUE,
			run_label VARCHAR(255) NOT NULL,
			cluster VARCHAR(255) NOT NULL,
			task_template VARCHAR(255) NOT NULL,
			subnets TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}

	// Create sandbox_report_log table
	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS sandbox_report_log (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			workflow_id VARCHAR(255) NOT NULL,
			sandbox_id VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL CHECK (status IN ('PENDING', 'RUNNING', 'COMPLETED', 'FAILED')),
			result_payload TEXT NOT NULL DEFAULT '',
			received_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sandbox_runs_created_at ON sandbox_runs(created_at);
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sandbox_report_log_workflow_id ON sandbox_report_log(workflow_id);
	`)
	if err != nil {
		return err
	}

	return nil
}

func mig_20260827090000_sandbox_runs_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS sandbox_report_log;`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DROP TABLE IF EXISTS sandbox_runs;`)
	if err != nil {
		return err
	}

	return nil
}
