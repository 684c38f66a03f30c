package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tarkyaio/tarka/internal/collab"
	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/diagnose"
	"github.com/tarkyaio/tarka/internal/engine"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/render"
	"github.com/tarkyaio/tarka/internal/utils"
)

var (
	alertPath string
	asJSON    bool
	useCanned bool
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Investigate one alert from a file and print the report",
	Long: `Reads a single Alertmanager alert entry (the JSON object from the
webhook "alerts" array) and runs the full investigation pipeline once,
printing the markdown report or the JSON snapshot to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTriage()
	},
}

func init() {
	triageCmd.Flags().StringVar(&alertPath, "alert", "", "path to an alert JSON file (required)")
	triageCmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON snapshot instead of markdown")
	triageCmd.Flags().BoolVar(&useCanned, "canned-evidence", false, "use canned healthy evidence instead of the gateway")
	_ = triageCmd.MarkFlagRequired("alert")
	rootCmd.AddCommand(triageCmd)
}

func runTriage() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := utils.NewLogger("warn", cfg.Logging.JSON)

	data, err := os.ReadFile(alertPath)
	if err != nil {
		return fmt.Errorf("read alert: %w", err)
	}
	var wa models.WebhookAlert
	if err := json.Unmarshal(data, &wa); err != nil {
		return fmt.Errorf("parse alert: %w", err)
	}
	alert := models.ParseAlert(wa)
	if alert.Name == "" {
		return fmt.Errorf("alert has no alertname label")
	}

	var pipeline *engine.Pipeline
	if useCanned {
		stub := collab.HealthyStub(collab.EvidenceRequest{Alert: alert})
		collector := evidence.NewCollector(logger, stub, stub, stub, stub, cfg.Gateway.Timeout)
		pipeline = engine.NewPipeline(logger, cfg, collector, diagnose.NewRegistry(logger), nil)
	} else {
		pipeline = buildPipeline(logger, cfg)
	}

	inv := pipeline.Investigate(context.Background(), alert)

	if asJSON {
		snapshot, err := render.Snapshot(inv)
		if err != nil {
			return err
		}
		fmt.Println(string(snapshot))
		return nil
	}
	fmt.Print(render.Report(inv))
	return nil
}
