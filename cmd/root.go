/*
Copyright © 2024 Dean
*/
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docqa/src/log"
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over uploaded PDF documents",
	Long: `docqa indexes a PDF into an in-memory vector index bound to a session
and answers follow-up questions about it with retrieval-augmented generation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Init(viper.GetBool("log.development"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// a missing .env file is fine, the environment may already be set
	_ = godotenv.Load()
	settingDefaultConfig()
}
