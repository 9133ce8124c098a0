package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "capctl",
	Short: "Capctl is a command line tool for operating capplane capacities",
	Long: `capctl is the command-line interface for the capplane capacity
lifecycle orchestrator.

The orchestrator keeps metered compute capacities paused by default and
activates them only for the duration of a pipeline run, driven by cron
schedules, CI merge triggers or manual operator actions.

Common workflows:

  List capacities and their lifecycle state:
    capctl capacities

  Inspect one capacity:
    capctl capacities fcav01prodengineering

  Fire a CI merge trigger:
    capctl trigger ci --branch main --status merged

  Record a manual operator action:
    capctl action fcav01testengineering activate

  Abort the in-flight pipeline run:
    capctl abort fcav01prodengineering

  Move a workspace onto another capacity:
    capctl assign WS-AV01-DEV-Processing fcav02devengineering

  Re-read the inventory declaration document:
    capctl reload

Configuration:
  Set the API endpoint via environment variable or a config file:
    CAPPLANE_URL    Orchestrator endpoint (default: http://localhost:8080)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".capctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".capctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "CAPPLANE_VARNAME"
	viper.SetEnvPrefix("CAPPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.capctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "Capplane Orchestrator URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
