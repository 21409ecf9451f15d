// Handles the "alcl test" command

package cmd

import (
	"github.com/spf13/cobra"
)

var testCmdConfig struct {
	file    string
	profile string
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test Lambda function code",
	Long: `Test invokes the deployed function with a request payload (aws/launch.json
unless --file is given) and prints the execution log followed by the response.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return skillManager.Test(testCmdConfig.profile, testCmdConfig.file)
	},
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVarP(&testCmdConfig.file, "file", "f", "", "request payload (default is aws/launch.json)")
	testCmd.Flags().StringVar(&testCmdConfig.profile, "profile", "", "AWS profile; must have lambda:InvokeFunction permission")
}
