package main

import (
	"context"
	"os"

	"github.com/jonathan/hackathon-judge/internal/observability"
	"github.com/jonathan/hackathon-judge/internal/types"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [project-id]",
	Short: "Print a stored project and its analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(_ *cobra.Command, args []string) error {
	id := args[0]
	if err := types.ValidateProjectID(id); err != nil {
		return err
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

	project, err := st.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return &types.NotFoundError{Resource: "project", ID: id}
	}

	observability.NewPrinter(os.Stdout).PrintProject(project)
	return nil
}
