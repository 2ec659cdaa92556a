package command

import (
	"github.com/spf13/cobra"
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "Manage patients",
	Long:  "The patients command is used to upload and inspect the patients of the cohort",
}

func init() {
	rootCmd.AddCommand(patientsCmd)
}
