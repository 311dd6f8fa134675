package orchestration

import (
	"github.com/curaious/sandpilot/internal/sandbox"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// NewWorker builds a Temporal worker serving the sandbox run task queue with
// the workflow and both launch activities registered.
func NewWorker(c client.Client, taskQueue string, launcher sandbox.Launcher) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(SandboxRunWorkflow, workflow.RegisterOptions{
		Name: WorkflowName,
	})

	a := NewActivities(launcher)
	w.RegisterActivityWithOptions(a.LaunchSandboxAndPoll, activity.RegisterOptions{Name: ActivityLaunchAndPoll})
	w.RegisterActivityWithOptions(a.LaunchSandboxDetached, activity.RegisterOptions{Name: ActivityLaunchDetached})

	return w
}
