// Root of command-line argument parsing.
// This file was based off the standard cobra template, see
// https://github.com/spf13/cobra
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/serverlessresearch/alcl/pkg/skillmgr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfgFile string
var workDir string
var verbose bool

var skillManager *skillmgr.SkillManager

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alcl",
	Short: "Alexa skills on AWS Lambda",
	Long: `Scaffold, package, deploy and test an Alexa skill backed by a single
AWS Lambda function. State is kept in the aws/ directory of the skill.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
			// the subprocess runner logs through the standard logger
			logrus.SetLevel(logrus.DebugLevel)
		}

		mgrArgs := map[string]interface{}{
			"logger": logger,
			"dir":    workDir,
		}
		if cfgFile != "" {
			mgrArgs["config-file"] = cfgFile
		}

		var err error
		skillManager, err = skillmgr.NewManager(mgrArgs)
		return errors.Wrap(err, "Failed to initialize alcl")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main(). It only needs to happen once to the rootCmd.
// Any failure is printed to stdout, verbatim, and terminates the process.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./alcl.yaml or ~/.alcl/alcl.yaml)")
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", "", "skill directory (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every command alcl runs")
}
