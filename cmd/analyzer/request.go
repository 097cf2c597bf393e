package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/speakwell/analysis-pipeline/internal/service"
)

var recordingID uint

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Create and queue the analysis of a recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, teardown := setup()
		defer teardown()

		ctx := context.Background()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		task, err := a.service.RequestAnalysis(ctx, recordingID)
		if err != nil {
			return err
		}

		return json.NewEncoder(os.Stdout).Encode(service.NewAnalysisView(task))
	},
}

func init() {
	requestCmd.Flags().UintVar(&recordingID, "recording", 0, "ID of the recording to analyse")
	_ = requestCmd.MarkFlagRequired("recording")
}
