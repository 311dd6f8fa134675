package cmd

import (
	"log"
	"os"
	"time"

	"github.com/curaious/sandpilot/internal/config"
	"github.com/curaious/sandpilot/internal/orchestration"
	"github.com/curaious/sandpilot/internal/sandbox"
	"github.com/curaious/sandpilot/internal/sandbox/k8slauncher"
	"github.com/curaious/sandpilot/internal/telemetry"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the sandbox run worker",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()

		os.Setenv("OTEL_SERVICE_NAME", "sandpilot-worker")

		shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT)
		defer shutdownTelemetry()

		launcher := newLauncher(conf)

		temporalClient, err := orchestration.Dial(conf)
		if err != nil {
			log.Fatalf("unable to create temporal client: %v", err)
		}
		defer temporalClient.Close()

		w := orchestration.NewWorker(temporalClient, conf.SANDBOX_TASK_QUEUE, launcher)
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatal(err)
		}
	},
}

func newLauncher(conf *config.Config) sandbox.Launcher {
	switch conf.SANDBOX_LAUNCHER {
	case "kubernetes":
		launcher, err := k8slauncher.NewLauncher(k8slauncher.Config{
			CPU:            conf.SANDBOX_K8S_CPU,
			Memory:         conf.SANDBOX_K8S_MEMORY,
			ServiceAccount: conf.SANDBOX_SERVICE_ACCOUNT,
			TTL:            time.Duration(conf.SANDBOX_K8S_TTL_SECONDS) * time.Second,
		})
		if err != nil {
			log.Fatalf("unable to create kubernetes launcher: %v", err)
		}
		return launcher
	default:
		return sandbox.NewSimulatedLauncher()
	}
}

// Register the "worker" command
func init() {
	rootCmd.AddCommand(workerCmd)
}
