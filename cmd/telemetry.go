package cmd

import (
	"context"
	"log"

	"github.com/opencourier/driverd/internal/cloudwriter"
	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/telemetry"
)

// buildTelemetry wires the configured output destination and wraps it in a
// recorder. Destinations that cannot be reached degrade to console output so
// a flaky broker never keeps the agent offline.
func buildTelemetry(cfg *models.Config, driverID string) (*telemetry.Recorder, func()) {
	out := buildOutput(cfg)

	if cfg.ArchiveEnabled {
		factory, err := cloudwriter.NewS3WriterFactory(context.Background(), cfg.ArchiveRegion)
		if err != nil {
			log.Printf("Telemetry archive disabled: %v", err)
		} else {
			out = telemetry.NewArchiveOutput(out, factory, cfg.ArchiveBucket, cfg.ArchivePrefix)
		}
	}

	rec := telemetry.NewRecorder(out, driverID, cfg.KafkaTopic)
	return rec, func() {
		if err := rec.Close(); err != nil {
			log.Printf("Failed to close telemetry output: %v", err)
		}
	}
}

func buildOutput(cfg *models.Config) telemetry.OutputDestination {
	switch cfg.TelemetryOutput {
	case "file":
		return telemetry.NewJSONOutput(cfg.TelemetryFile)
	case "kafka":
		out, err := telemetry.NewKafkaOutput(cfg.KafkaBrokerList)
		if err != nil {
			log.Printf("Failed to connect to Kafka, falling back to console: %v", err)
			return &telemetry.ConsoleOutput{}
		}
		return out
	case "postgres":
		out, err := telemetry.NewPostgresOutput(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Printf("Failed to connect to Postgres, falling back to console: %v", err)
			return &telemetry.ConsoleOutput{}
		}
		return out
	default:
		return &telemetry.ConsoleOutput{}
	}
}
