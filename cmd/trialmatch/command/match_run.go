package command

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/report"
)

var matchRunParams = struct {
	PatientId string
	Mode      string
	NumTrials int
	Xlsx      string
}{}

var matchRunCmd = &cobra.Command{
	Use:   "run {patientId}",
	Args:  cobra.ExactArgs(1),
	Short: "Match one patient",
	Long:  "The run command matches a patient and prints the ranked trials of the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		matchRunParams.PatientId = args[0]
		if err := setNumTrials(cmd, matchRunParams.NumTrials); err != nil {
			return failure(err)
		}
		return Run(runMatching)
	},
}

func init() {
	matchRunCmd.Flags().StringVar(&matchRunParams.Mode, "mode", "", "Matching mode, demo or random")
	matchRunCmd.Flags().IntVar(&matchRunParams.NumTrials, "num-trials", 0, "Number of trials sampled in random mode")
	matchRunCmd.Flags().StringVar(&matchRunParams.Xlsx, "xlsx", "", "Also export the report to this spreadsheet")

	matchCmd.AddCommand(matchRunCmd)
}

func runMatching(controller *navigation.Controller, cfg *config.Config) error {
	mode, err := modeOrDefault(matchRunParams.Mode, cfg)
	if err != nil {
		return failure(err)
	}

	ctx := context.TODO()
	if err := controller.Open(ctx, navigation.PatientDetail(matchRunParams.PatientId)); err != nil {
		return failure(err)
	}
	if _, err := controller.RunMatching(ctx, mode); err != nil {
		return failure(err)
	}

	screen := controller.Screen()
	if screen.Document == nil {
		return fmt.Errorf("the report of patient %s is not available", matchRunParams.PatientId)
	}
	printDocument(screen.Document)
	fmt.Printf("Report: %s\n", screen.ReportLocator)

	if matchRunParams.Xlsx == "" {
		return nil
	}
	file, err := report.MatchReport{
		Document:    *screen.Document,
		Detail:      screen.Detail,
		Locator:     screen.ReportLocator,
		CreatedTime: time.Now(),
	}.Generate()
	if err != nil {
		return err
	}
	if err := report.Save(file, matchRunParams.Xlsx); err != nil {
		return err
	}
	fmt.Printf("Saved spreadsheet to %s\n", matchRunParams.Xlsx)

	return nil
}
