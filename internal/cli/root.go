package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verisci/internal/model"
)

const version = "verisci v0.2.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verisci",
	Short: "VeriSci - reproducible credibility verdicts for scientific claims",
	Long: `VeriSci evaluates a natural-language scientific claim and returns a
structured verdict: a 0-100 credibility score, a confidence label, a short
explanation and the factors behind it.

Every claim is keyed by a deterministic identifier (SHA-256 of its canonical
text), so re-evaluating the same claim overwrites the same record.

Evaluation walks a chain of tiers: a primary model behind the LLM gateway,
a secondary direct vendor call, and finally a deterministic fallback that
always answers. A verdict is always produced.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for VeriSci.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verisci/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("store", "", "store backend (file, badger, memory)")
	rootCmd.PersistentFlags().String("store-path", "", "store location (JSON file or badger directory)")
	rootCmd.PersistentFlags().String("ledger", "", "ledger mode (log, memory)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store-path"))
	_ = viper.BindPFlag("ledger.mode", rootCmd.PersistentFlags().Lookup("ledger"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and VERISCI_* environment variables
func initConfig() {
	// .env in the working directory; real environment wins
	if err := godotenv.Load(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Loaded environment from .env\n")
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
		} else {
			// Search for config in home directory
			viper.AddConfigPath(filepath.Join(home, ".verisci"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(viper.GetViper(), model.DefaultConfig())

	// Read in environment variables that match VERISCI_* (llm.primary.model -> VERISCI_LLM_PRIMARY_MODEL)
	viper.SetEnvPrefix("VERISCI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setupLogging installs the process-wide slog handler on stderr
func setupLogging() {
	level := slog.LevelInfo
	if verbose || viper.GetBool("output.verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(level))
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
