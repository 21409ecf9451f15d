// The "alcl schema" and "alcl utter" commands print the interaction model the
// skill declares, ready to paste into the Alexa developer console.
package cmd

import (
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the skill's intent schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return skillManager.Schema()
	},
}

var utterCmd = &cobra.Command{
	Use:   "utter",
	Short: "Print the skill's sample utterances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return skillManager.Utterances()
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(utterCmd)
}
