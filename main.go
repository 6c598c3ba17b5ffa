package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "card-images",
	Short:        "Serve card images hosted by an external image host",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		envFile, _ := cmd.Flags().GetString("env-file")
		return serve(cmd.Context(), configFile, envFile)
	},
}

func init() {
	rootCmd.Flags().StringP("config", "c", "", "optional YAML configuration file")
	rootCmd.Flags().String("env-file", ".env", "dotenv file loaded before reading the environment")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("card-images exited")
		os.Exit(1)
	}
}
