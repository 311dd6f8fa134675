package orchestration

import (
	"errors"
	"time"

	"github.com/curaious/sandpilot/internal/sandbox"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// SandboxRunWorkflow owns one run's full sandbox lifecycle. It demonstrates
// the two completion-reporting strategies back to back:
//
//  1. a blocking launch whose activity polls and heartbeats until the
//     sandbox finishes or the poll budget runs out, and
//  2. a detached launch whose sandbox later signals the workflow, which
//     waits replay-safe on the matching completion report.
//
// The two launches run sequentially, so the polling pattern's latency gates
// the signal pattern's start. Both results combine into a single RunOutput.
func SandboxRunWorkflow(ctx workflow.Context, in *RunInput) (*RunOutput, error) {
	logger := workflow.GetLogger(ctx)

	if in == nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"run input is required", ErrTypeConfiguration, errors.New("nil input"))
	}
	if err := in.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid run input", ErrTypeConfiguration, err)
	}

	logger.Info("Starting sandbox run orchestration",
		"run_label", in.RunLabel, "cluster", in.Cluster, "task_template", in.TaskTemplate)

	// pending holds the most recent completion report delivered for this run.
	// The drain loop below keeps overwriting it; only a report carrying the
	// awaited identifier releases the wait further down.
	var pending *sandbox.Result

	reports := workflow.GetSignalChannel(ctx, SignalSandboxCompleted)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for {
			var report CompletionReport
			reports.Receive(gctx, &report)
			logger.Info("Received completion signal from sandbox",
				"sandbox_id", report.SandboxID, "status", report.Status)
			result := report.Result()
			pending = &result
		}
	})

	if err := workflow.SetQueryHandler(ctx, QueryAsyncSandboxStatus, func() (*sandbox.Result, error) {
		return pending, nil
	}); err != nil {
		return nil, err
	}

	// Shared configuration used for both patterns within this run.
	launchConfig := in.LaunchConfig()

	// --- Pattern 1: blocking launch that polls and heartbeats ---
	pollCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		// Sandboxes genuinely run for hours; heartbeats let Temporal detect
		// a dead one long before this deadline and retry the launch.
		StartToCloseTimeout: 4 * time.Hour,
		HeartbeatTimeout:    heartbeatTimeout(in.PollIntervalSeconds),
	})

	var pollingResult sandbox.Result
	err := workflow.ExecuteActivity(pollCtx, ActivityLaunchAndPoll, LaunchRequest{
		Config:              launchConfig,
		PollIntervalSeconds: in.PollIntervalSeconds,
		MaxPolls:            in.MaxPolls,
	}).Get(ctx, &pollingResult)
	if err != nil {
		return nil, err
	}

	// --- Pattern 2: detached launch plus completion signal ---
	detachedCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		// Only starts the sandbox, never waits on it.
		StartToCloseTimeout: 30 * time.Second,
	})

	var launched LaunchedSandbox
	err = workflow.ExecuteActivity(detachedCtx, ActivityLaunchDetached, LaunchRequest{
		Config: launchConfig,
	}).Get(ctx, &launched)
	if err != nil {
		return nil, err
	}

	awaitedID := launched.SandboxID
	if awaitedID == "" {
		return nil, temporal.NewNonRetryableApplicationError(
			"launcher returned no sandbox identifier to correlate against",
			ErrTypeConfiguration, nil)
	}

	logger.Info("Waiting for sandbox to signal completion", "sandbox_id", awaitedID)

	// Replay-safe wait: consumes no worker resources and survives worker
	// restarts. A report delivered before this point is already in pending.
	if err := workflow.Await(ctx, func() bool {
		return pending != nil && pending.SandboxID == awaitedID
	}); err != nil {
		return nil, err
	}

	if pending == nil {
		// The await predicate guarantees pending is set; reaching here is a
		// logic defect, not something a retry can fix.
		return nil, temporal.NewNonRetryableApplicationError(
			"completion predicate fired without a correlated result",
			ErrTypeInternalConsistency, nil)
	}

	logger.Info("Sandbox run orchestration complete",
		"run_label", in.RunLabel,
		"polling_sandbox_id", pollingResult.SandboxID,
		"signal_sandbox_id", pending.SandboxID)

	return &RunOutput{
		PollingResult: pollingResult,
		SignalResult:  *pending,
	}, nil
}

// heartbeatTimeout leaves room for a few missed polls before Temporal treats
// the sandbox as dead. A zero poll interval is the fast polling mode used by
// tests, where no heartbeat deadline is wanted.
func heartbeatTimeout(pollIntervalSeconds int) time.Duration {
	if pollIntervalSeconds <= 0 {
		return 0
	}
	return 3 * time.Duration(pollIntervalSeconds) * time.Second
}
