package cmd

import (
	"context"
	"fmt"
	"log"

	json "github.com/bytedance/sonic"
	"github.com/curaious/sandpilot/internal/config"
	"github.com/curaious/sandpilot/internal/orchestration"
	"github.com/spf13/cobra"
)

var runInput orchestration.RunInput

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start one sandbox orchestration run and wait for its result",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()

		temporalClient, err := orchestration.Dial(conf)
		if err != nil {
			log.Fatalf("unable to create temporal client: %v", err)
		}
		defer temporalClient.Close()

		ctx := context.Background()

		run, err := orchestration.StartRun(ctx, temporalClient, conf.SANDBOX_TASK_QUEUE, &runInput)
		if err != nil {
			log.Fatalf("unable to start run: %v", err)
		}

		fmt.Printf("Started sandbox run %s\n", run.GetID())

		var out orchestration.RunOutput
		if err := run.Get(ctx, &out); err != nil {
			log.Fatalf("run failed: %v", err)
		}

		buf, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			log.Fatalf("unable to encode run output: %v", err)
		}

		fmt.Println(string(buf))
	},
}

// Register the "run" command
func init() {
	runCmd.Flags().StringVar(&runInput.RunLabel, "run-label", "example-sandbox-run", "logical label for this run")
	runCmd.Flags().StringVar(&runInput.Cluster, "cluster", "example-cluster", "compute cluster for sandboxes")
	runCmd.Flags().StringVar(&runInput.TaskTemplate, "task-template", "coding-agent-task", "task definition for the sandbox workload")
	runCmd.Flags().StringSliceVar(&runInput.Subnets, "subnets", []string{"subnet-123456"}, "subnets for sandbox networking")
	runCmd.Flags().IntVar(&runInput.PollIntervalSeconds, "poll-interval", 10, "seconds between polls in the blocking pattern")
	runCmd.Flags().IntVar(&runInput.MaxPolls, "max-polls", 3, "poll budget for the blocking pattern")

	rootCmd.AddCommand(runCmd)
}
