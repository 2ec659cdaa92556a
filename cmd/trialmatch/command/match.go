package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/report"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run trial matching",
	Long:  "The match command is used to match patients against the trial corpus",
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func printDocument(doc *gateway.MatchDocument) {
	fmt.Printf("%s matches from %s\n", navigation.FormatMode(doc.Mode), navigation.FormatText(doc.CreatedAt))
	for i, trial := range report.Ranked(doc.Trials, report.MaxTrials) {
		fmt.Printf("%2d. %s\t%s\t%s\n", i+1, trial.NctId, navigation.FormatScore(trial.Score), navigation.FormatText(trial.Title))
	}
	fmt.Printf("Found %v trials\n", len(doc.Trials))
}
