package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/hackathon-judge/internal/analysis"
	"github.com/jonathan/hackathon-judge/internal/observability"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis worker for a stored project",
	Long:  "Runs the market or code analysis worker synchronously for a project, writes its answers to the store and prints the report.",
	RunE:  runAnalyze,
}

var (
	analyzeProjectID string
	analyzeWorker    string
	analyzeInput     string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeProjectID, "project", "p", "", "Project ID (required)")
	analyzeCmd.Flags().StringVarP(&analyzeWorker, "worker", "w", analysis.WorkerMarket, "Worker to run: market or code")
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "Idea (market) or repository URL (code); defaults to the stored project")

	if err := analyzeCmd.MarkFlagRequired("project"); err != nil {
		panic(fmt.Sprintf("failed to mark project flag as required: %v", err))
	}
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	if analyzeWorker != analysis.WorkerMarket && analyzeWorker != analysis.WorkerCode {
		return fmt.Errorf("unknown worker %q (want %s or %s)", analyzeWorker, analysis.WorkerMarket, analysis.WorkerCode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := newModels(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	w, err := newWorkers(ctx, cfg, st, m)
	if err != nil {
		return err
	}

	var report *analysis.Report
	var runErr error
	if analyzeWorker == analysis.WorkerCode {
		report, runErr = w.code.Run(ctx, analyzeProjectID, analyzeInput)
	} else {
		report, runErr = w.market.Run(ctx, analyzeProjectID, analyzeInput)
	}

	observability.NewPrinter(os.Stdout).PrintReport(report)
	if runErr != nil {
		return fmt.Errorf("%s analysis failed: %w", analyzeWorker, runErr)
	}
	return nil
}
