package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/navigation"
)

var patientsShowParams = struct {
	PatientId string
}{}

var patientsShowCmd = &cobra.Command{
	Use:   "show {patientId}",
	Args:  cobra.ExactArgs(1),
	Short: "Show a patient",
	Long:  "The show command prints the parsed profile and the latest matches of a patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		patientsShowParams.PatientId = args[0]
		return Run(showPatient)
	},
}

func init() {
	patientsCmd.AddCommand(patientsShowCmd)
}

func showPatient(controller *navigation.Controller) error {
	if err := controller.Open(context.TODO(), navigation.PatientDetail(patientsShowParams.PatientId)); err != nil {
		return failure(err)
	}

	screen := controller.Screen()
	fmt.Printf("Patient: %s\n", screen.Detail.PatientId)
	fmt.Printf("Created: %s\n", navigation.FormatText(screen.Detail.CreatedAt))
	printProfile(screen.Detail.Profile)

	if screen.Document == nil {
		fmt.Printf("No %s matches\n", navigation.FormatMode(screen.Mode))
		return nil
	}
	printDocument(screen.Document)

	return nil
}

func printProfile(profile *gateway.PatientProfile) {
	if profile == nil {
		fmt.Printf("Profile: %s\n", navigation.NotAvailable)
		return
	}

	fmt.Printf("Conditions: %s\n", navigation.FormatList(profile.Conditions))
	fmt.Printf("Medications: %s\n", navigation.FormatList(profile.Medications))
	fmt.Printf("Entities: %s\n", navigation.FormatList(profile.NerEntities))
	fmt.Printf("Summary: %s\n", navigation.FormatText(profile.TextSummary))
}
