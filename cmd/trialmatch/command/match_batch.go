package command

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/pointer"
	"github.com/trialmatch/workspace/report"
)

var matchBatchParams = struct {
	Mode      string
	NumTrials int
	Xlsx      string
}{}

var matchBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Match the whole cohort",
	Long:  "The batch command matches every patient of the cohort with a single request",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setNumTrials(cmd, matchBatchParams.NumTrials); err != nil {
			return failure(err)
		}
		return Run(runBatch)
	},
}

func init() {
	matchBatchCmd.Flags().StringVar(&matchBatchParams.Mode, "mode", "", "Matching mode, demo or random")
	matchBatchCmd.Flags().IntVar(&matchBatchParams.NumTrials, "num-trials", 0, "Number of trials sampled in random mode")
	matchBatchCmd.Flags().StringVar(&matchBatchParams.Xlsx, "xlsx", "", "Also export the outcome to this spreadsheet")

	matchCmd.AddCommand(matchBatchCmd)
}

func runBatch(controller *navigation.Controller, cfg *config.Config) error {
	mode, err := modeOrDefault(matchBatchParams.Mode, cfg)
	if err != nil {
		return failure(err)
	}

	ctx := context.TODO()
	if err := controller.Open(ctx, navigation.Admin()); err != nil {
		return failure(err)
	}

	outcome, err := controller.RunBatch(ctx, mode)
	screen := controller.Screen()
	fmt.Println(screen.Status)
	if err != nil {
		return failure(err)
	}

	for _, entry := range outcome.Entries {
		if entry.Failed() {
			fmt.Printf("%s\tfailed\t%s\n", entry.PatientId, pointer.ToString(entry.Error))
			continue
		}
		fmt.Printf("%s\tsucceeded\t%v trials\n", entry.PatientId, len(entry.Trials))
	}
	for _, patientId := range outcome.Missing {
		fmt.Printf("%s\tfailed\tno result returned\n", patientId)
	}

	if matchBatchParams.Xlsx == "" {
		return nil
	}
	file, err := report.BatchReport{
		Mode:        mode,
		Outcome:     *outcome,
		CreatedTime: time.Now(),
	}.Generate()
	if err != nil {
		return err
	}
	if err := report.Save(file, matchBatchParams.Xlsx); err != nil {
		return err
	}
	fmt.Printf("Saved spreadsheet to %s\n", matchBatchParams.Xlsx)

	return nil
}
