package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// NewRootCommand creates the cma command with all subcommands.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cma",
		Short: "Content management API CLI",
		Long: `A command-line interface for the content management API.

It starts bulk actions, release actions, AI action invocations and
environment clones, and can wait for them to finish.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.cma/config.yml)")
	rootCmd.PersistentFlags().StringP(keyAPI, "a", "", "API endpoint URL (default "+constants.DefaultAPIEndpoint+")")
	rootCmd.PersistentFlags().StringP(keyToken, "t", "", "personal access token")
	rootCmd.PersistentFlags().StringP(keySpace, "s", "", "space ID")
	rootCmd.PersistentFlags().StringP(keyEnvironment, "e", "", "environment ID (default "+constants.DefaultEnvironment+")")
	rootCmd.PersistentFlags().StringP(keyOutput, "o", OutputFormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP(keyVerbose, "v", false, "verbose output")

	// Bind flags to viper
	for _, key := range []string{"config", keyAPI, keyToken, keySpace, keyEnvironment, keyOutput, keyVerbose} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}

	// Add commands
	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewBulkActionsCommand())
	rootCmd.AddCommand(NewReleasesCommand())
	rootCmd.AddCommand(NewAIActionsCommand())
	rootCmd.AddCommand(NewEnvironmentsCommand())

	return rootCmd
}

func initConfig() error {
	// A missing .env file is fine; variables may come from the shell.
	_ = godotenv.Load()

	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		// Search config in ~/.cma/config.yml
		viper.AddConfigPath(filepath.Join(home, ".cma"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match, e.g. CMA_TOKEN, CMA_SPACE
	viper.SetEnvPrefix("CMA")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	err := viper.ReadInConfig()
	if err == nil && viper.GetBool(keyVerbose) {
		_, _ = fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	return nil
}
