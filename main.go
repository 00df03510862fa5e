// Package main provides the entry point for the sebatch CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepxi/sebatch/internal/config"
	"github.com/deepxi/sebatch/internal/dataset"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	cacheDir   string
	storeKind  string
	recursive  bool
	extensions []string

	// cfg is loaded in PersistentPreRunE before any subcommand runs.
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "sebatch",
		Short: "Catalog and batch speech-enhancement audio datasets",
		Long: paragraph(
			fmt.Sprintf("\nScan audio datasets into cached %s and assemble zero-padded %s for evaluation.",
				keyword("catalogs"), keyword("batches")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	// the config and man commands must work with a missing or broken config file
	switch cmd.Name() {
	case "config", "man":
		return nil
	}

	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}

	c, err := config.LoadFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = c
	log.Debug("Configuration loaded", "cache_dir", cfg.CacheDir, "store", cfg.Store, "extensions", cfg.Extensions)
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		var de *dataset.Error
		if errors.As(err, &de) {
			log.Debug("Command failed", "code", de.Code, "path", de.Path)
		}
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Could not load .env file", "err", err)
	}

	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	defaults := config.DefaultConfig()
	// configFile already holds the found or default path; keep it as the flag default
	rootCmd.PersistentFlags().StringVar(&configFile, "config", configFile, "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", defaults.CacheDir, "directory holding cached catalogs")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", defaults.Store, "catalog store (file, sqlite or memory)")
	rootCmd.PersistentFlags().BoolVarP(&recursive, "recursive", "r", false, "scan subdirectories")
	rootCmd.PersistentFlags().StringSliceVar(&extensions, "extensions", defaults.Extensions, "audio extensions to scan, in order")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("recursive", rootCmd.PersistentFlags().Lookup("recursive"))
	_ = viper.BindPFlag("extensions", rootCmd.PersistentFlags().Lookup("extensions"))

	viper.SetDefault("cache_dir", defaults.CacheDir)
	viper.SetDefault("store", defaults.Store)
	viper.SetDefault("compression_level", defaults.CompressionLevel)
	viper.SetDefault("sample_rate", defaults.SampleRate)
	viper.SetDefault("volume", defaults.Volume)

	rootCmd.AddCommand(catalogCmd, batchCmd, listenCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "sebatch")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "sebatch")}, dirs...)
	}

	if c := os.Getenv("SEBATCH_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("sebatch")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("sebatch")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		configFile = used
		return
	}

	configFile = filepath.Join(dirs[0], "sebatch.yml")
}
