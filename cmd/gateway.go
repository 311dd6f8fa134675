package cmd

import (
	"os"

	"github.com/curaious/sandpilot/internal/api"
	"github.com/curaious/sandpilot/internal/config"
	"github.com/curaious/sandpilot/internal/telemetry"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the completion report gateway",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()

		os.Setenv("OTEL_SERVICE_NAME", "sandpilot-gateway")

		shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT)
		defer shutdownTelemetry()

		s := api.New()
		s.Start()
	},
}

// Register the "gateway" command
func init() {
	rootCmd.AddCommand(gatewayCmd)
}
