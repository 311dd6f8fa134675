package orchestration

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/curaious/sandpilot/internal/config"
	"github.com/curaious/sandpilot/internal/sandbox"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
)

// Dial connects to the Temporal cluster named in the configuration. When an
// API key is configured the connection switches to TLS, matching Temporal
// Cloud's expectations.
func Dial(conf *config.Config) (client.Client, error) {
	tracingInterceptor, err := opentelemetry.NewTracingInterceptor(opentelemetry.TracerOptions{})
	if err != nil {
		return nil, fmt.Errorf("create tracing interceptor: %w", err)
	}

	opts := client.Options{
		HostPort:     conf.TEMPORAL_SERVER_HOST_PORT,
		Namespace:    conf.TEMPORAL_NAMESPACE,
		Interceptors: []interceptor.ClientInterceptor{tracingInterceptor},
	}

	if conf.TEMPORAL_API_KEY != "" {
		opts.Credentials = client.NewAPIKeyStaticCredentials(conf.TEMPORAL_API_KEY)
		opts.ConnectionOptions = client.ConnectionOptions{
			TLS: &tls.Config{},
		}
	}

	return client.Dial(opts)
}

// StartRun starts a sandbox run workflow and returns its handle.
func StartRun(ctx context.Context, c client.Client, taskQueue string, in *RunInput) (client.WorkflowRun, error) {
	return c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("sandbox-run-%s", uuid.New()),
		TaskQueue: taskQueue,
	}, WorkflowName, in)
}

// SignalCompletion delivers a sandbox completion report to a running
// orchestration. This is what the process inside the sandbox calls, directly
// or via the report gateway, when its work ends.
func SignalCompletion(ctx context.Context, c client.Client, workflowID string, report CompletionReport) error {
	return c.SignalWorkflow(ctx, workflowID, "", SignalSandboxCompleted, report)
}

// QueryPendingReport returns the latest completion report the run has seen,
// or nil when none arrived yet.
func QueryPendingReport(ctx context.Context, c client.Client, workflowID string) (*sandbox.Result, error) {
	value, err := c.QueryWorkflow(ctx, workflowID, "", QueryAsyncSandboxStatus)
	if err != nil {
		return nil, err
	}

	var result *sandbox.Result
	if err := value.Get(&result); err != nil {
		return nil, err
	}

	return result, nil
}
