package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and modify libgendl configuration.

Configuration is stored in ~/.config/libgendl/config.yaml. Every key can
also be set from the environment, e.g. LIBGENDL_NETWORK_PROBE_TIMEOUT=5s.

Examples:
  libgendl config show
  libgendl config get network.probe_timeout
  libgendl config set network.timeout 45s
  libgendl config set downloads.path ~/Books
  libgendl config set mirrors.file ~/.config/libgendl/mirrors.json`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := config.GetValue(key)
		if value == nil {
			return fmt.Errorf("key not found: %s", key)
		}
		fmt.Printf("%s = %v\n", key, value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := args[1]

		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("failed to set config: %w", err)
		}

		Successf("Set %s = %s", key, value)
		fmt.Printf("Config saved to: %s\n", config.GetConfigPath())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config file: %s\n", config.GetConfigPath())
		fmt.Printf("Database:    %s\n", config.GetDBPath())
		fmt.Printf("Config dir:  %s\n", config.GetConfigDir())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		c := config.Get()

		mirrors := c.Mirrors.File
		if mirrors == "" {
			mirrors = "(built-in list)"
		}

		fmt.Printf("mirrors.file:                %s\n", mirrors)
		fmt.Printf("downloads.path:              %s\n", c.Downloads.Path)
		fmt.Printf("downloads.verify:            %t\n", c.Downloads.Verify)
		fmt.Printf("downloads.notifications:     %t\n", c.Downloads.Notifications)
		fmt.Printf("network.timeout:             %s\n", c.Network.Timeout)
		fmt.Printf("network.probe_timeout:       %s\n", c.Network.ProbeTimeout)
		fmt.Printf("network.retry_attempts:      %d\n", c.Network.RetryAttempts)
		fmt.Printf("network.requests_per_second: %g\n", c.Network.RequestsPerSecond)
		fmt.Printf("log.level:                   %s\n", c.Log.Level)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}
