package controllers

import (
	"errors"
	"log/slog"

	"github.com/curaious/sandpilot/internal/orchestration"
	"github.com/curaious/sandpilot/internal/perrors"
	"github.com/curaious/sandpilot/internal/sandbox"
	"github.com/curaious/sandpilot/internal/services"
	runsvc "github.com/curaious/sandpilot/internal/services/run"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.temporal.io/sdk/client"
)

const (
	defaultPollIntervalSeconds = 30
	defaultMaxPolls            = 10
)

// StartRunRequest is the gateway's run creation payload. Interval and poll
// budget are pointers so that an omitted field gets the production default
// while an explicit zero keeps its meaning.
type StartRunRequest struct {
	RunLabel            string   `json:"run_label"`
	Cluster             string   `json:"cluster"`
	TaskTemplate        string   `json:"task_template"`
	Subnets             []string `json:"subnets"`
	PollIntervalSeconds *int     `json:"poll_interval_seconds"`
	MaxPolls            *int     `json:"max_polls"`
}

// StartRunResponse returns the workflow identity the caller signals and
// queries with.
type StartRunResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// CompletionReportRequest is what a sandbox posts when its workload ends.
type CompletionReportRequest struct {
	SandboxID     string `json:"sandbox_id"`
	Status        string `json:"status"`
	ResultPayload string `json:"result_payload"`
}

// RegisterRunRoutes wires the sandbox run surface: starting runs, the
// completion report ingress sandboxes call back into, and read-only status.
func RegisterRunRoutes(r *router.Router, svc *services.Services, temporalClient client.Client, taskQueue string) {
	r.POST("/api/runs", func(reqCtx *fasthttp.RequestCtx) {
		baseCtx := requestContext(reqCtx)

		var reqPayload StartRunRequest
		if err := parseBody(reqCtx, &reqPayload); err != nil {
			writeError(reqCtx, baseCtx, "Invalid request body", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		in := &orchestration.RunInput{
			RunLabel:            reqPayload.RunLabel,
			Cluster:             reqPayload.Cluster,
			TaskTemplate:        reqPayload.TaskTemplate,
			Subnets:             reqPayload.Subnets,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxPolls:            defaultMaxPolls,
		}
		if reqPayload.PollIntervalSeconds != nil {
			in.PollIntervalSeconds = *reqPayload.PollIntervalSeconds
		}
		if reqPayload.MaxPolls != nil {
			in.MaxPolls = *reqPayload.MaxPolls
		}

		if err := in.Validate(); err != nil {
			writeError(reqCtx, baseCtx, "Invalid run input", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		run, err := orchestration.StartRun(baseCtx, temporalClient, taskQueue, in)
		if err != nil {
			writeError(reqCtx, baseCtx, "Unable to start run", perrors.NewErrInternalServerError(err.Error(), err))
			return
		}

		// The workflow is already running; a failed record only degrades the
		// listing, so it is logged rather than surfaced.
		if _, err := svc.Run.RecordRun(baseCtx, runsvc.CreateRunParams{
			WorkflowID:   run.GetID(),
			RunLabel:     in.RunLabel,
			Cluster:      in.Cluster,
			TaskTemplate: in.TaskTemplate,
			Subnets:      in.Subnets,
		}); err != nil {
			slog.WarnContext(baseCtx, "Unable to record run", slog.String("workflow_id", run.GetID()), slog.Any("error", err))
		}

		writeOK(reqCtx, baseCtx, "Run started", StartRunResponse{
			WorkflowID: run.GetID(),
			RunID:      run.GetRunID(),
		})
	})

	r.POST("/api/runs/{workflow_id}/completed", func(reqCtx *fasthttp.RequestCtx) {
		baseCtx := requestContext(reqCtx)

		workflowID, err := pathParam(reqCtx, "workflow_id")
		if err != nil {
			writeError(reqCtx, baseCtx, "Workflow ID is required", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		var reqPayload CompletionReportRequest
		if err := parseBody(reqCtx, &reqPayload); err != nil {
			writeError(reqCtx, baseCtx, "Invalid request body", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		if reqPayload.SandboxID == "" {
			err := errors.New("sandbox_id is required")
			writeError(reqCtx, baseCtx, "Sandbox ID is required", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		status := sandbox.Status(reqPayload.Status)
		if !status.Valid() {
			err := errors.New("status must be one of PENDING, RUNNING, COMPLETED, FAILED")
			writeError(reqCtx, baseCtx, "Invalid sandbox status", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		report := orchestration.CompletionReport{
			SandboxID:     reqPayload.SandboxID,
			Status:        status,
			ResultPayload: reqPayload.ResultPayload,
		}

		if err := orchestration.SignalCompletion(baseCtx, temporalClient, workflowID, report); err != nil {
			writeError(reqCtx, baseCtx, "Unable to deliver completion report", perrors.NewErrInternalServerError(err.Error(), err))
			return
		}

		if _, err := svc.Run.RecordReport(baseCtx, workflowID, report.SandboxID, status, report.ResultPayload); err != nil {
			slog.WarnContext(baseCtx, "Unable to log completion report", slog.String("workflow_id", workflowID), slog.Any("error", err))
		}

		writeOK[any](reqCtx, baseCtx, "Completion report delivered", nil)
	})

	r.GET("/api/runs/{workflow_id}/status", func(reqCtx *fasthttp.RequestCtx) {
		baseCtx := requestContext(reqCtx)

		workflowID, err := pathParam(reqCtx, "workflow_id")
		if err != nil {
			writeError(reqCtx, baseCtx, "Workflow ID is required", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		pending, err := orchestration.QueryPendingReport(baseCtx, temporalClient, workflowID)
		if err != nil {
			writeError(reqCtx, baseCtx, "Unable to query run status", perrors.NewErrInternalServerError(err.Error(), err))
			return
		}

		writeOK(reqCtx, baseCtx, "Pending completion report", pending)
	})

	r.GET("/api/runs/{workflow_id}/reports", func(reqCtx *fasthttp.RequestCtx) {
		baseCtx := requestContext(reqCtx)

		workflowID, err := pathParam(reqCtx, "workflow_id")
		if err != nil {
			writeError(reqCtx, baseCtx, "Workflow ID is required", perrors.NewErrInvalidRequest(err.Error(), err))
			return
		}

		reports, err := svc.Run.ListReports(baseCtx, workflowID)
		if err != nil {
			writeError(reqCtx, baseCtx, "Unable to list reports", perrors.NewErrInternalServerError(err.Error(), err))
			return
		}

		writeOK(reqCtx, baseCtx, "Report log", reports)
	})

	r.GET("/api/runs", func(reqCtx *fasthttp.RequestCtx) {
		baseCtx := requestContext(reqCtx)

		limit := intQuery(reqCtx, "limit", 0)

		runs, err := svc.Run.ListRuns(baseCtx, limit)
		if err != nil {
			writeError(reqCtx, baseCtx, "Unable to list runs", perrors.NewErrInternalServerError(err.Error(), err))
			return
		}

		writeOK(reqCtx, baseCtx, "Recorded runs", runs)
	})
}
