// Handles the "alcl init" command

package cmd

import (
	"github.com/spf13/cobra"
)

var initCmdConfig struct {
	role    string
	profile string
}

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new Alexa skill",
	Long: `Init writes a skill skeleton into the skill directory, installs
alexa-app, packages everything and creates the Lambda function. Afterwards the
Alexa Skills Kit trigger still has to be added in the AWS console.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return skillManager.Init(args[0], initCmdConfig.role, initCmdConfig.profile)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initCmdConfig.role, "role", "r", "", "lambda execution role ARN")
	initCmd.Flags().StringVar(&initCmdConfig.profile, "profile", "", "AWS profile; must have lambda:CreateFunction permission")
}
