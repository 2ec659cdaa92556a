package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/upload"
)

var patientsUploadParams = struct {
	File      string
	PatientId string
}{}

var patientsUploadCmd = &cobra.Command{
	Use:   "upload {file}",
	Args:  cobra.ExactArgs(1),
	Short: "Upload a patient record",
	Long:  "The upload command submits a JSON patient document and prints the parsed profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		patientsUploadParams.File = args[0]
		return Run(uploadPatient)
	},
}

func init() {
	patientsUploadCmd.Flags().StringVar(&patientsUploadParams.PatientId, "patient-id", "", "Identifier of the patient, assigned by the server if empty")

	patientsCmd.AddCommand(patientsUploadCmd)
}

func uploadPatient(controller *navigation.Controller) error {
	raw, err := upload.ReadFile(patientsUploadParams.File)
	if err != nil {
		return failure(err)
	}

	result, err := controller.UploadPatient(context.TODO(), raw, patientsUploadParams.PatientId)
	if err != nil {
		return failure(err)
	}

	fmt.Println(controller.Screen().Status)
	printProfile(result.Patient.Profile)
	if result.CohortRefreshErr == nil {
		fmt.Printf("The cohort has %v patients\n", len(result.Cohort))
	}

	return nil
}
