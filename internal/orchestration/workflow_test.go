package orchestration

import (
	"errors"
	"testing"
	"time"

	"github.com/curaious/sandpilot/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

func newWorkflowEnv(launcher sandbox.Launcher) (*testsuite.TestWorkflowEnvironment, *Activities) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.RegisterWorkflowWithOptions(SandboxRunWorkflow, workflow.RegisterOptions{Name: WorkflowName})

	a := NewActivities(launcher)
	env.RegisterActivityWithOptions(a.LaunchSandboxAndPoll, activity.RegisterOptions{Name: ActivityLaunchAndPoll})
	env.RegisterActivityWithOptions(a.LaunchSandboxDetached, activity.RegisterOptions{Name: ActivityLaunchDetached})

	return env, a
}

func completionReport(sandboxID string) CompletionReport {
	return CompletionReport{
		SandboxID:     sandboxID,
		Status:        sandbox.StatusCompleted,
		ResultPayload: "signal-result",
	}
}

func TestWorkflowRunsBothPatterns(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(sandbox.Result{
		SandboxID:     "sandbox-polling-123",
		Status:        sandbox.StatusCompleted,
		ResultPayload: "polled-result",
	}, nil)
	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{
		SandboxID: "sandbox-signal-456",
	}, nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-signal-456"))
	}, time.Minute)

	in := validInput()
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RunOutput
	require.NoError(t, env.GetWorkflowResult(&out))

	assert.Equal(t, "sandbox-polling-123", out.PollingResult.SandboxID)
	assert.Equal(t, sandbox.StatusCompleted, out.PollingResult.Status)
	assert.Equal(t, "polled-result", out.PollingResult.ResultPayload)

	assert.Equal(t, "sandbox-signal-456", out.SignalResult.SandboxID)
	assert.Equal(t, sandbox.StatusCompleted, out.SignalResult.Status)
	assert.Equal(t, "signal-result", out.SignalResult.ResultPayload)

	env.AssertExpectations(t)
}

func TestWorkflowEmitsOnePulsePerPoll(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{
		SandboxID: "sandbox-signal-456",
	}, nil)

	var pulses []Pulse
	env.SetOnActivityHeartbeatListener(func(_ *activity.Info, details converter.EncodedValues) {
		var pulse Pulse
		require.NoError(t, details.Get(&pulse))
		pulses = append(pulses, pulse)
	})

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-signal-456"))
	}, time.Minute)

	in := validInput() // max_polls = 3, poll_interval = 0
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RunOutput
	require.NoError(t, env.GetWorkflowResult(&out))

	require.Len(t, pulses, 3)
	for i, pulse := range pulses {
		assert.Equal(t, i+1, pulse.PollNumber)
		assert.Equal(t, out.PollingResult.SandboxID, pulse.SandboxID)
	}

	assert.Equal(t, sandbox.StatusCompleted, out.PollingResult.Status)
	assert.NotEmpty(t, out.PollingResult.SandboxID)
	assert.NotEmpty(t, out.PollingResult.ResultPayload)
}

func TestWorkflowZeroPollBudgetEmitsNoPulses(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{
		SandboxID: "sandbox-signal-456",
	}, nil)

	var pulses []Pulse
	env.SetOnActivityHeartbeatListener(func(_ *activity.Info, details converter.EncodedValues) {
		var pulse Pulse
		require.NoError(t, details.Get(&pulse))
		pulses = append(pulses, pulse)
	})

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-signal-456"))
	}, time.Minute)

	in := validInput()
	in.MaxPolls = 0
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RunOutput
	require.NoError(t, env.GetWorkflowResult(&out))

	assert.Empty(t, pulses)
	assert.Equal(t, sandbox.StatusCompleted, out.PollingResult.Status)
}

func TestWorkflowIgnoresForeignReport(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(sandbox.Result{
		SandboxID: "sandbox-polling-123",
		Status:    sandbox.StatusCompleted,
	}, nil)
	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{
		SandboxID: "sandbox-signal-456",
	}, nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-other-999"))
	}, time.Minute)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-signal-456"))
	}, 2*time.Minute)

	in := validInput()
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RunOutput
	require.NoError(t, env.GetWorkflowResult(&out))

	// Only the report carrying the awaited identifier resolves the run.
	assert.Equal(t, "sandbox-signal-456", out.SignalResult.SandboxID)
}

func TestWorkflowForeignReportDoesNotReleaseWait(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(sandbox.Result{
		SandboxID: "sandbox-polling-123",
		Status:    sandbox.StatusCompleted,
	}, nil)
	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{
		SandboxID: "sandbox-signal-456",
	}, nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-other-999"))
	}, time.Minute)

	// Well after the foreign report landed: the run recorded it but is still
	// suspended, because the identifier does not match.
	env.RegisterDelayedCallback(func() {
		assert.False(t, env.IsWorkflowCompleted())

		value, err := env.QueryWorkflow(QueryAsyncSandboxStatus)
		require.NoError(t, err)
		var pending *sandbox.Result
		require.NoError(t, value.Get(&pending))
		require.NotNil(t, pending)
		assert.Equal(t, "sandbox-other-999", pending.SandboxID)
	}, 10*time.Minute)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-signal-456"))
	}, 20*time.Minute)

	in := validInput()
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RunOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, "sandbox-signal-456", out.SignalResult.SandboxID)
}

func TestWorkflowObservesReportDeliveredBeforeWait(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(sandbox.Result{
		SandboxID: "sandbox-polling-123",
		Status:    sandbox.StatusCompleted,
	}, nil)
	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{
		SandboxID: "sandbox-signal-456",
	}, nil)

	// Delivered effectively at run start, long before the workflow reaches
	// its wait. The report must not be lost.
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-signal-456"))
	}, time.Millisecond)

	in := validInput()
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RunOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, "sandbox-signal-456", out.SignalResult.SandboxID)
}

func TestWorkflowQueryExposesPendingReport(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(sandbox.Result{
		SandboxID: "sandbox-polling-123",
		Status:    sandbox.StatusCompleted,
	}, nil)
	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{
		SandboxID: "sandbox-signal-456",
	}, nil)

	env.RegisterDelayedCallback(func() {
		value, err := env.QueryWorkflow(QueryAsyncSandboxStatus)
		require.NoError(t, err)

		var pending *sandbox.Result
		require.NoError(t, value.Get(&pending))
		assert.Nil(t, pending)
	}, 30*time.Second)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-signal-456"))
	}, time.Minute)

	in := validInput()
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	value, err := env.QueryWorkflow(QueryAsyncSandboxStatus)
	require.NoError(t, err)

	var pending *sandbox.Result
	require.NoError(t, value.Get(&pending))
	require.NotNil(t, pending)
	assert.Equal(t, "sandbox-signal-456", pending.SandboxID)
	assert.Equal(t, sandbox.StatusCompleted, pending.Status)
	assert.Equal(t, "signal-result", pending.ResultPayload)
}

func TestWorkflowRunsDoNotCrossCorrelate(t *testing.T) {
	pollingResult := sandbox.Result{SandboxID: "sandbox-polling-123", Status: sandbox.StatusCompleted}

	envA, aA := newWorkflowEnv(sandbox.NewSimulatedLauncher())
	envA.OnActivity(aA.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(pollingResult, nil)
	envA.OnActivity(aA.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{SandboxID: "sandbox-a"}, nil)

	envB, aB := newWorkflowEnv(sandbox.NewSimulatedLauncher())
	envB.OnActivity(aB.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(pollingResult, nil)
	envB.OnActivity(aB.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{SandboxID: "sandbox-b"}, nil)

	// Run A first sees run B's report, which must not release it; its own
	// report arrives later.
	envA.RegisterDelayedCallback(func() {
		envA.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-b"))
	}, time.Minute)
	envA.RegisterDelayedCallback(func() {
		assert.False(t, envA.IsWorkflowCompleted())
		envA.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-a"))
	}, 10*time.Minute)
	envB.RegisterDelayedCallback(func() {
		envB.SignalWorkflow(SignalSandboxCompleted, completionReport("sandbox-b"))
	}, time.Minute)

	inA := validInput()
	envA.ExecuteWorkflow(WorkflowName, &inA)
	inB := validInput()
	envB.ExecuteWorkflow(WorkflowName, &inB)

	require.True(t, envA.IsWorkflowCompleted())
	require.NoError(t, envA.GetWorkflowError())
	var outA RunOutput
	require.NoError(t, envA.GetWorkflowResult(&outA))
	assert.Equal(t, "sandbox-a", outA.SignalResult.SandboxID)

	require.True(t, envB.IsWorkflowCompleted())
	require.NoError(t, envB.GetWorkflowError())
	var outB RunOutput
	require.NoError(t, envB.GetWorkflowResult(&outB))
	assert.Equal(t, "sandbox-b", outB.SignalResult.SandboxID)
}

func TestWorkflowFailsFastOnMissingRunLabel(t *testing.T) {
	launcher := sandbox.NewSimulatedLauncher()
	env, _ := newWorkflowEnv(launcher)

	in := validInput()
	in.RunLabel = ""
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeConfiguration, appErr.Type())
	assert.True(t, appErr.NonRetryable())

	// The run failed before any launch happened.
	assert.Equal(t, 0, launcher.LaunchCount())
}

func TestWorkflowRejectsEmptyAwaitedIdentifier(t *testing.T) {
	env, a := newWorkflowEnv(sandbox.NewSimulatedLauncher())

	env.OnActivity(a.LaunchSandboxAndPoll, mock.Anything, mock.Anything).Return(sandbox.Result{
		SandboxID: "sandbox-polling-123",
		Status:    sandbox.StatusCompleted,
	}, nil)
	env.OnActivity(a.LaunchSandboxDetached, mock.Anything, mock.Anything).Return(LaunchedSandbox{}, nil)

	in := validInput()
	env.ExecuteWorkflow(WorkflowName, &in)

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeConfiguration, appErr.Type())
}
