package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/curaious/sandpilot/internal/config"
	"github.com/curaious/sandpilot/internal/orchestration"
	"github.com/curaious/sandpilot/internal/sandbox"
	"github.com/spf13/cobra"
)

var (
	reportWorkflowID string
	reportSandboxID  string
	reportStatus     string
	reportPayload    string
)

// The sandbox-side reporter: what a sandbox task executes when its workload
// finishes and it needs to tell the awaiting run about it.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Deliver a sandbox completion report to a running orchestration",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()

		status := sandbox.Status(reportStatus)
		if !status.Valid() {
			log.Fatalf("unknown sandbox status %q", reportStatus)
		}

		temporalClient, err := orchestration.Dial(conf)
		if err != nil {
			log.Fatalf("unable to create temporal client: %v", err)
		}
		defer temporalClient.Close()

		report := orchestration.CompletionReport{
			SandboxID:     reportSandboxID,
			Status:        status,
			ResultPayload: reportPayload,
		}

		if err := orchestration.SignalCompletion(context.Background(), temporalClient, reportWorkflowID, report); err != nil {
			log.Fatalf("unable to deliver completion report: %v", err)
		}

		fmt.Printf("Delivered completion report for sandbox %s to run %s\n", reportSandboxID, reportWorkflowID)
	},
}

// Register the "report" command
func init() {
	reportCmd.Flags().StringVar(&reportWorkflowID, "workflow-id", "", "workflow id of the awaiting run")
	reportCmd.Flags().StringVar(&reportSandboxID, "sandbox-id", "", "identifier of the finished sandbox")
	reportCmd.Flags().StringVar(&reportStatus, "status", string(sandbox.StatusCompleted), "final sandbox status")
	reportCmd.Flags().StringVar(&reportPayload, "payload", "", "opaque result payload")
	_ = reportCmd.MarkFlagRequired("workflow-id")
	_ = reportCmd.MarkFlagRequired("sandbox-id")

	rootCmd.AddCommand(reportCmd)
}
