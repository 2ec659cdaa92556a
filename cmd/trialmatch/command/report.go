package command

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Retrieve match reports",
	Long:  "The report command is used to locate and export the match report of a patient",
}

var reportParams = struct {
	PatientId string
	Output    string
}{}

var reportUrlCmd = &cobra.Command{
	Use:   "url {patientId}",
	Args:  cobra.ExactArgs(1),
	Short: "Print the report download URL",
	Long:  "The url command prints the location of the rendered report without contacting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		reportParams.PatientId = args[0]
		return Run(printReportUrl)
	},
}

var reportExportCmd = &cobra.Command{
	Use:   "export {patientId}",
	Args:  cobra.ExactArgs(1),
	Short: "Export the latest matches to a spreadsheet",
	Long:  "The export command writes the latest match document of a patient to an xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reportParams.PatientId = args[0]
		return Run(exportReport)
	},
}

func init() {
	reportExportCmd.Flags().StringVarP(&reportParams.Output, "output", "o", "report.xlsx", "Spreadsheet to write")

	reportCmd.AddCommand(reportUrlCmd)
	reportCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}

func printReportUrl(gw gateway.Gateway) error {
	fmt.Println(gw.ReportDownloadLocator(reportParams.PatientId))
	return nil
}

func exportReport(controller *navigation.Controller) error {
	if err := controller.Open(context.TODO(), navigation.Report(reportParams.PatientId)); err != nil {
		return failure(err)
	}

	screen := controller.Screen()
	if screen.Document == nil {
		return fmt.Errorf("no match results found for patient %s", reportParams.PatientId)
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
	if err := report.Save(file, reportParams.Output); err != nil {
		return err
	}
	fmt.Printf("Saved spreadsheet to %s\n", reportParams.Output)

	return nil
}
