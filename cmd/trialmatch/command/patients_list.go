package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/navigation"
)

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients",
	Long:  "The list command is used to retrieve the patients of the cohort",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(listPatients) },
}

func init() {
	patientsCmd.AddCommand(patientsListCmd)
}

func listPatients(controller *navigation.Controller) error {
	if err := controller.Open(context.TODO(), navigation.Dashboard()); err != nil {
		return failure(err)
	}

	screen := controller.Screen()
	for _, patient := range screen.Cohort {
		fmt.Printf("%s\t%s\t%s\n", patient.PatientId, navigation.FormatText(patient.CreatedAt), navigation.FormatList(patient.Conditions))
	}
	fmt.Printf("Found %v patients\n", len(screen.Cohort))

	return nil
}
