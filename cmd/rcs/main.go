package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "rcs",
		Short: "Retro Catalog Scraper - import retro game metadata from Screenscraper",
		Long: `rcs (Retro Catalog Scraper) imports consoles, games, companies, genres and
media references from the Screenscraper API into a local SQLite catalog.

Requests are rate limited, imports are idempotent and every batch run ends
with a summary of what was created, updated, skipped and failed.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/rcs.yaml)")
	rootCmd.PersistentFlags().String("db", "rcs.db", "catalog database file")
	rootCmd.PersistentFlags().String("artifacts", "artifacts", "directory for event logs and run reports")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus metrics to this file after a batch run")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("artifacts", rootCmd.PersistentFlags().Lookup("artifacts"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("rcs")
		viper.SetConfigType("yaml")
	}

	// RCS_SCREENSCRAPER_DEVID maps to screenscraper.devid
	viper.SetEnvPrefix("RCS")
	viper.SetEnvKeyReplacer(replacer())
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

// replacer maps nested config keys to environment variable names
func replacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
