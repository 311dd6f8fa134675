package orchestration

import (
	"context"
	"time"

	"github.com/curaious/sandpilot/internal/sandbox"
	"go.temporal.io/sdk/activity"
)

// Activities holds the launcher both launch patterns go through. Swapping the
// launcher swaps the compute backend without touching the workflow.
type Activities struct {
	launcher sandbox.Launcher
}

func NewActivities(launcher sandbox.Launcher) *Activities {
	return &Activities{launcher: launcher}
}

// LaunchSandboxAndPoll starts a sandbox and stays engaged until it finishes
// or the poll budget runs out, heartbeating once per poll so Temporal can
// detect a dead sandbox and retry the whole launch.
//
// Each attempt launches a fresh sandbox, so a retry after a crashed attempt
// never resumes half-tracked state. Transient launcher errors propagate and
// are retried by the activity's retry policy.
func (a *Activities) LaunchSandboxAndPoll(ctx context.Context, req LaunchRequest) (sandbox.Result, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Launching sandbox for long-running polling pattern",
		"cluster", req.Config.Cluster, "task_template", req.Config.TaskTemplate)

	sandboxID, err := a.launcher.Launch(ctx, req.Config)
	if err != nil {
		return sandbox.Result{}, err
	}

	for poll := 1; poll <= req.MaxPolls; poll++ {
		logger.Info("Polling sandbox status",
			"sandbox_id", sandboxID, "poll", poll, "max_polls", req.MaxPolls)

		// The pulse carries enough context for failure handling to reason
		// about which sandbox was being tracked when the activity died.
		activity.RecordHeartbeat(ctx, Pulse{SandboxID: sandboxID, PollNumber: poll})

		status, err := a.launcher.Check(ctx, sandboxID)
		if err != nil {
			return sandbox.Result{}, err
		}

		if status.Terminal() {
			payload, err := a.launcher.Collect(ctx, sandboxID)
			if err != nil {
				return sandbox.Result{}, err
			}
			logger.Info("Sandbox reached terminal status while polling",
				"sandbox_id", sandboxID, "status", status)
			return sandbox.Result{SandboxID: sandboxID, Status: status, ResultPayload: payload}, nil
		}

		if req.PollIntervalSeconds > 0 {
			select {
			case <-ctx.Done():
				return sandbox.Result{}, ctx.Err()
			case <-time.After(time.Duration(req.PollIntervalSeconds) * time.Second):
			}
		}
	}

	payload, err := a.launcher.Collect(ctx, sandboxID)
	if err != nil {
		return sandbox.Result{}, err
	}

	logger.Info("Completed polling for sandbox", "sandbox_id", sandboxID)

	return sandbox.Result{
		SandboxID:     sandboxID,
		Status:        sandbox.StatusCompleted,
		ResultPayload: payload,
	}, nil
}

// LaunchSandboxDetached starts a sandbox and returns immediately. The
// sandbox itself reports completion through the sandbox_completed signal; no
// heartbeats are emitted here.
func (a *Activities) LaunchSandboxDetached(ctx context.Context, req LaunchRequest) (LaunchedSandbox, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Launching sandbox for detached signal pattern",
		"cluster", req.Config.Cluster, "task_template", req.Config.TaskTemplate)

	sandboxID, err := a.launcher.Launch(ctx, req.Config)
	if err != nil {
		return LaunchedSandbox{}, err
	}

	return LaunchedSandbox{SandboxID: sandboxID}, nil
}
