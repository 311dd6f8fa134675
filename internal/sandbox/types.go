package sandbox

// LaunchConfig describes how a sandbox task is started. It is built once per
// orchestration run and shared read-only by both launch patterns.
type LaunchConfig struct {
	// Cluster is the name of the compute cluster the sandbox runs on. For the
	// Kubernetes launcher this selects the namespace.
	Cluster string `json:"cluster"`

	// TaskTemplate identifies the task definition (image) for the sandbox.
	TaskTemplate string `json:"task_template"`

	// Subnets used for sandbox networking.
	Subnets []string `json:"subnets"`

	// AssignPublicIP controls whether the sandbox is publicly reachable.
	AssignPublicIP bool `json:"assign_public_ip"`
}

// Status is the high-level state of a sandbox task.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Result is the outcome of a sandbox run as observed by the orchestrator.
// Both launch patterns produce one, through different mechanisms.
type Result struct {
	// SandboxID is the stable identifier of the sandbox that produced this result.
	SandboxID string `json:"sandbox_id"`

	// Status is the final status of the sandbox run.
	Status Status `json:"status"`

	// ResultPayload is an opaque payload returned by the sandbox, for example
	// logs or a summary.
	ResultPayload string `json:"result_payload,omitempty"`
}
