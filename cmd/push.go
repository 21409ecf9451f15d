// Handles the "alcl push" command

package cmd

import (
	"github.com/spf13/cobra"
)

var pushProfile string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Update Lambda function code",
	Long:  `Push rebuilds aws/lambda.zip and uploads it to the function named in aws/update-function-code.json.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return skillManager.Push(pushProfile)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringVar(&pushProfile, "profile", "", "AWS profile; must have lambda:UpdateFunctionCode permission")
}
