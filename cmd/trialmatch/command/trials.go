package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/upload"
)

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "Manage the trial corpus",
	Long:  "The trials command is used to upsert trials into the corpus of the matching service",
}

var trialsUploadParams = struct {
	File       string
	AdminToken string
}{}

var trialsUploadCmd = &cobra.Command{
	Use:   "upload {file}",
	Args:  cobra.ExactArgs(1),
	Short: "Upload trials",
	Long:  "The upload command submits a JSON array of trials, or an object with a trials array",
	RunE: func(cmd *cobra.Command, args []string) error {
		trialsUploadParams.File = args[0]
		return Run(uploadTrials)
	},
}

func init() {
	trialsUploadCmd.Flags().StringVar(&trialsUploadParams.AdminToken, "admin-token", "", "Admin token, defaults to TRIALMATCH_ADMIN_TOKEN")

	trialsCmd.AddCommand(trialsUploadCmd)
	rootCmd.AddCommand(trialsCmd)
}

func uploadTrials(controller *navigation.Controller, cfg *config.Config) error {
	raw, err := upload.ReadFile(trialsUploadParams.File)
	if err != nil {
		return failure(err)
	}

	token := trialsUploadParams.AdminToken
	if token == "" {
		token = cfg.AdminToken
	}

	if _, err := controller.UploadTrials(context.TODO(), raw, token); err != nil {
		fmt.Println(controller.Screen().Status)
		return failure(err)
	}
	fmt.Println(controller.Screen().Status)

	return nil
}
