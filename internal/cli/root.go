package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/config"
	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/logging"
)

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "libgendl",
	Short: "Find and download books from Library Genesis mirrors",
	Long: `libgendl finds books on Library Genesis mirrors and downloads them.

It probes the configured mirrors, searches the non-fiction or fiction index
of a reachable search mirror, resolves the chosen book on a download mirror
and streams the file to disk.

Examples:
  libgendl get dune -a "Frank Herbert"      Interactive search and download
  libgendl get --fiction "dune messiah"     Search the fiction index
  libgendl search dune -a herbert           Print matching records
  libgendl download <md5>                   Download a known hash
  libgendl resolve <md5>                    Print the direct file link
  libgendl mirrors probe                    Check which mirrors answer
  libgendl list -a                          List all downloads`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		level := config.Get().Log.Level
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		logging.Init(level, verbose)

		if err := db.Init(config.GetDBPath()); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		db.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/libgendl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(mirrorsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// Verbose returns whether verbose mode is enabled
func Verbose() bool {
	return verbose
}

// Printf prints if verbose mode is enabled
func Printf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format, args...)
	}
}

// Errorf prints an error message to stderr
func Errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// Successf prints a success message
func Successf(format string, args ...interface{}) {
	fmt.Printf("✓ "+format+"\n", args...)
}
