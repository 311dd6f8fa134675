package orchestration

import (
	"fmt"
	"strings"

	"github.com/curaious/sandpilot/internal/sandbox"
)

const (
	// WorkflowName is the registered name of the sandbox run workflow.
	WorkflowName = "SandboxRun"

	// SignalSandboxCompleted is sent by a sandbox (or the gateway on its
	// behalf) when the agent workload finishes.
	SignalSandboxCompleted = "sandbox_completed"

	// QueryAsyncSandboxStatus returns the latest completion report received
	// for the signal-based pattern, or nil when none arrived yet.
	QueryAsyncSandboxStatus = "async_sandbox_status"

	ActivityLaunchAndPoll  = "LaunchSandboxAndPoll"
	ActivityLaunchDetached = "LaunchSandboxDetached"
)

// Error types carried by non-retryable application errors.
const (
	ErrTypeConfiguration       = "configuration_error"
	ErrTypeInternalConsistency = "internal_consistency"
)

// RunInput starts one sandbox orchestration run.
type RunInput struct {
	// RunLabel is the logical label for this orchestration run, for example
	// the agent name.
	RunLabel string `json:"run_label"`

	// Cluster names the compute cluster sandboxes run on.
	Cluster string `json:"cluster"`

	// TaskTemplate identifies the task definition for the sandbox workload.
	TaskTemplate string `json:"task_template"`

	// Subnets used for sandbox networking.
	Subnets []string `json:"subnets"`

	// PollIntervalSeconds is the gap between polls in the blocking pattern.
	// Zero makes the poll loop run without waiting, which keeps tests fast.
	PollIntervalSeconds int `json:"poll_interval_seconds"`

	// MaxPolls bounds the blocking pattern's poll budget.
	MaxPolls int `json:"max_polls"`
}

// Validate rejects inputs that can never produce a correlatable run. These
// are configuration errors: they fail the run before any launch happens.
func (in *RunInput) Validate() error {
	if strings.TrimSpace(in.RunLabel) == "" {
		return fmt.Errorf("run_label is required")
	}
	if strings.TrimSpace(in.Cluster) == "" {
		return fmt.Errorf("cluster is required")
	}
	if strings.TrimSpace(in.TaskTemplate) == "" {
		return fmt.Errorf("task_template is required")
	}
	if in.PollIntervalSeconds < 0 {
		return fmt.Errorf("poll_interval_seconds must not be negative")
	}
	if in.MaxPolls < 0 {
		return fmt.Errorf("max_polls must not be negative")
	}
	return nil
}

// LaunchConfig builds the launch configuration shared by both patterns
// within one run.
func (in *RunInput) LaunchConfig() sandbox.LaunchConfig {
	return sandbox.LaunchConfig{
		Cluster:        in.Cluster,
		TaskTemplate:   in.TaskTemplate,
		Subnets:        in.Subnets,
		AssignPublicIP: false,
	}
}

// RunOutput is the single return value of a completed orchestration run.
type RunOutput struct {
	// PollingResult is the outcome observed by the blocking polling pattern.
	PollingResult sandbox.Result `json:"polling_pattern_result"`

	// SignalResult is the outcome delivered asynchronously by the sandbox
	// through the completion signal.
	SignalResult sandbox.Result `json:"signal_pattern_result"`
}

// CompletionReport is the payload of the sandbox_completed signal: which
// sandbox finished, how, and what it produced.
type CompletionReport struct {
	SandboxID     string         `json:"sandbox_id"`
	Status        sandbox.Status `json:"status"`
	ResultPayload string         `json:"result_payload,omitempty"`
}

// Result converts the report into the canonical sandbox result.
func (r CompletionReport) Result() sandbox.Result {
	return sandbox.Result{
		SandboxID:     r.SandboxID,
		Status:        r.Status,
		ResultPayload: r.ResultPayload,
	}
}

// LaunchRequest is the input of both launch activities. The detached variant
// ignores the polling fields.
type LaunchRequest struct {
	Config              sandbox.LaunchConfig `json:"config"`
	PollIntervalSeconds int                  `json:"poll_interval_seconds"`
	MaxPolls            int                  `json:"max_polls"`
}

// LaunchedSandbox is the output of the detached launch activity.
type LaunchedSandbox struct {
	SandboxID string `json:"sandbox_id"`
}

// Pulse is the heartbeat detail emitted once per poll so retry logic can see
// which sandbox was being tracked and how far polling got.
type Pulse struct {
	SandboxID  string `json:"sandbox_id"`
	PollNumber int    `json:"poll_number"`
}
