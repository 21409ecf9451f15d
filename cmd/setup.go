// Handles the "alcl setup" command

package cmd

import (
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup <name>",
	Short: "Setup an Alexa skill for pushing",
	Long: `Setup renders the descriptors for an existing Lambda function into
aws/ and builds the archive. It does not talk to AWS; run "alcl push" next.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return skillManager.Setup(args[0])
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
