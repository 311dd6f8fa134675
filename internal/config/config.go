package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Temporal connection used by the worker, the gateway and the CLI.
	TEMPORAL_SERVER_HOST_PORT string
	TEMPORAL_NAMESPACE        string
	TEMPORAL_API_KEY          string
	SANDBOX_TASK_QUEUE        string

	// Postgres holding run records and the completion report log.
	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	// Which Launcher implementation the worker drives: "simulated" or "kubernetes".
	SANDBOX_LAUNCHER string

	// Kubernetes launcher knobs.
	SANDBOX_K8S_CPU          string
	SANDBOX_K8S_MEMORY       string
	SANDBOX_K8S_TTL_SECONDS  int
	SANDBOX_SERVICE_ACCOUNT  string

	GATEWAY_ADDR string

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
}

func ReadConfig() *Config {
	ttlSeconds := 3600
	if raw := os.Getenv("SANDBOX_K8S_TTL_SECONDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			ttlSeconds = parsed
		}
	}

	return &Config{
		TEMPORAL_SERVER_HOST_PORT: GetEnvOrDefault("TEMPORAL_SERVER_HOST_PORT", "localhost:7233"),
		TEMPORAL_NAMESPACE:        GetEnvOrDefault("TEMPORAL_NAMESPACE", "default"),
		TEMPORAL_API_KEY:          os.Getenv("TEMPORAL_API_KEY"),
		SANDBOX_TASK_QUEUE:        GetEnvOrDefault("SANDBOX_TASK_QUEUE", "sandbox-run-task-queue"),

		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		SANDBOX_LAUNCHER: GetEnvOrDefault("SANDBOX_LAUNCHER", "simulated"),

		SANDBOX_K8S_CPU:         GetEnvOrDefault("SANDBOX_K8S_CPU", "500m"),
		SANDBOX_K8S_MEMORY:      GetEnvOrDefault("SANDBOX_K8S_MEMORY", "1Gi"),
		SANDBOX_K8S_TTL_SECONDS: ttlSeconds,
		SANDBOX_SERVICE_ACCOUNT: os.Getenv("SANDBOX_SERVICE_ACCOUNT"),

		GATEWAY_ADDR: GetEnvOrDefault("GATEWAY_ADDR", "0.0.0.0:6061"),

		OTEL_EXPORTER_OTLP_ENDPOINT: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
