package orchestration

import (
	"context"
	"sync"
	"testing"

	"github.com/curaious/sandpilot/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

// scriptedLauncher replays a fixed status sequence so tests can drive the
// poll loop deterministically.
type scriptedLauncher struct {
	mu       sync.Mutex
	launches int
	checks   int
	statuses []sandbox.Status
	payload  string
	launchID string
}

func (l *scriptedLauncher) Launch(_ context.Context, _ sandbox.LaunchConfig) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	return l.launchID, nil
}

func (l *scriptedLauncher) Check(_ context.Context, _ string) (sandbox.Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.checks
	l.checks++
	if idx >= len(l.statuses) {
		return sandbox.StatusRunning, nil
	}
	return l.statuses[idx], nil
}

func (l *scriptedLauncher) Collect(_ context.Context, _ string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.payload, nil
}

func launchRequest(maxPolls int) LaunchRequest {
	return LaunchRequest{
		Config: sandbox.LaunchConfig{
			Cluster:      "test-cluster",
			TaskTemplate: "coding-agent-task",
			Subnets:      []string{"subnet-1"},
		},
		PollIntervalSeconds: 0,
		MaxPolls:            maxPolls,
	}
}

func TestLaunchSandboxAndPollCompletesAfterPollBudget(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	launcher := sandbox.NewSimulatedLauncher()
	a := NewActivities(launcher)
	env.RegisterActivity(a.LaunchSandboxAndPoll)

	val, err := env.ExecuteActivity(a.LaunchSandboxAndPoll, launchRequest(3))
	require.NoError(t, err)

	var result sandbox.Result
	require.NoError(t, val.Get(&result))

	assert.Equal(t, sandbox.StatusCompleted, result.Status)
	assert.NotEmpty(t, result.SandboxID)
	assert.NotEmpty(t, result.ResultPayload)
}

func TestLaunchSandboxAndPollZeroBudget(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	launcher := &scriptedLauncher{launchID: "sandbox-zero", payload: "zero-budget-result"}
	a := NewActivities(launcher)
	env.RegisterActivity(a.LaunchSandboxAndPoll)

	val, err := env.ExecuteActivity(a.LaunchSandboxAndPoll, launchRequest(0))
	require.NoError(t, err)

	var result sandbox.Result
	require.NoError(t, val.Get(&result))

	assert.Equal(t, sandbox.StatusCompleted, result.Status)
	assert.Equal(t, "sandbox-zero", result.SandboxID)
	// No polling happened at all.
	assert.Equal(t, 0, launcher.checks)
}

func TestLaunchSandboxAndPollStopsOnTerminalStatus(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	launcher := &scriptedLauncher{
		launchID: "sandbox-early",
		payload:  "early-result",
		statuses: []sandbox.Status{sandbox.StatusRunning, sandbox.StatusFailed},
	}
	a := NewActivities(launcher)
	env.RegisterActivity(a.LaunchSandboxAndPoll)

	val, err := env.ExecuteActivity(a.LaunchSandboxAndPoll, launchRequest(10))
	require.NoError(t, err)

	var result sandbox.Result
	require.NoError(t, val.Get(&result))

	assert.Equal(t, sandbox.StatusFailed, result.Status)
	assert.Equal(t, "sandbox-early", result.SandboxID)
	assert.Equal(t, "early-result", result.ResultPayload)
	// Terminal on the second poll; the remaining budget is not spent.
	assert.Equal(t, 2, launcher.checks)
}

// Retried launches must start from scratch: a fresh sandbox per attempt with
// no poll state carried over from the aborted one.
func TestLaunchSandboxAndPollRestartsFreshOnRetry(t *testing.T) {
	var ts testsuite.WorkflowTestSuite

	launcher := sandbox.NewSimulatedLauncher()
	a := NewActivities(launcher)

	var results []sandbox.Result
	for attempt := 0; attempt < 2; attempt++ {
		env := ts.NewTestActivityEnvironment()
		env.RegisterActivity(a.LaunchSandboxAndPoll)

		val, err := env.ExecuteActivity(a.LaunchSandboxAndPoll, launchRequest(3))
		require.NoError(t, err)

		var result sandbox.Result
		require.NoError(t, val.Get(&result))
		results = append(results, result)
	}

	assert.Equal(t, 2, launcher.LaunchCount())
	assert.Equal(t, sandbox.StatusCompleted, results[0].Status)
	assert.Equal(t, sandbox.StatusCompleted, results[1].Status)
	assert.Equal(t, results[0].ResultPayload, results[1].ResultPayload)
	assert.NotEqual(t, results[0].SandboxID, results[1].SandboxID)
}

func TestLaunchSandboxDetachedReturnsIdentifierImmediately(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	launcher := &scriptedLauncher{launchID: "sandbox-detached"}
	a := NewActivities(launcher)
	env.RegisterActivity(a.LaunchSandboxDetached)

	val, err := env.ExecuteActivity(a.LaunchSandboxDetached, launchRequest(0))
	require.NoError(t, err)

	var launched LaunchedSandbox
	require.NoError(t, val.Get(&launched))

	assert.Equal(t, "sandbox-detached", launched.SandboxID)
	assert.Equal(t, 1, launcher.launches)
	// Detached launches never poll.
	assert.Equal(t, 0, launcher.checks)
}
