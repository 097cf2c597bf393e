package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/speakwell/analysis-pipeline/internal/service"
	"github.com/speakwell/analysis-pipeline/internal/store"
)

var (
	taskID     uint
	stuckAfter time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print an analysis task, or the tasks stuck in a non-terminal state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskID == 0 && stuckAfter == 0 {
			return errors.New("one of --task or --stuck-after is required")
		}

		cfg, teardown := setup()
		defer teardown()

		ctx := context.Background()

		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}
		s := store.NewStore(db)
		defer s.Close()

		// Reads never run the pipeline, so no providers or storage are attached.
		svc := service.NewAnalysisService(s, nil, nil)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if stuckAfter > 0 {
			views, err := svc.ListStuck(ctx, stuckAfter)
			if err != nil {
				return err
			}
			return enc.Encode(views)
		}

		view, err := svc.GetAnalysis(ctx, taskID)
		if err != nil {
			return err
		}
		return enc.Encode(view)
	},
}

func init() {
	statusCmd.Flags().UintVar(&taskID, "task", 0, "ID of the analysis task")
	statusCmd.Flags().DurationVar(&stuckAfter, "stuck-after", 0, "list pending or processing tasks unchanged for this long")
}
