// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the statpaper CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mzelen/statpaper/internal/secrets"
	"github.com/mzelen/statpaper/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// userAgent builds the User-Agent for arXiv requests, appending the
// contact email from .secrets/contact-email when present.
func userAgent() string {
	ua := "statpaper/" + version
	if email, ok := loadedSecrets["contact-email"]; ok {
		ua += " (mailto:" + email + ")"
	}
	return ua
}

// pipelineConfig returns stage settings from the loaded config file.
// Fields absent from the file are left at their zero value; callers fall
// back to flag values for those.
func pipelineConfig() types.PipelineConfig {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: ignoring invalid config:", err)
	}
	return cfg
}

// corpusDirFrom resolves the corpus directory from the config file and the
// command's --corpus-dir flag, the flag winning when set.
func corpusDirFrom(cmd *cobra.Command) string {
	dir := pipelineConfig().Corpus.CorpusDir
	if dir == "" || cmd.Flags().Changed("corpus-dir") {
		dir, _ = cmd.Flags().GetString("corpus-dir")
	}
	return dir
}

// rootCmd is the base command for the statpaper CLI.
var rootCmd = &cobra.Command{
	Use:   "statpaper",
	Short: "Readability statistics over an arXiv paper corpus",
	Long: `statpaper builds a corpus of arXiv papers and computes readability
statistics over it. Each pipeline stage is a subcommand: harvest downloads
PDFs per category, extract converts them to text and scores readability,
index loads everything into a SQLite corpus, and query, report, and export
read it back out.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./statpaper.yaml or ~/.config/statpaper/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("statpaper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "statpaper"))
		}
	}

	viper.SetEnvPrefix("STATPAPER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
