package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rtckit/pkg/cli"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Global configuration (loaded at init time)
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "rtckit",
	Short: "Realtime session toolkit",
	Long: `rtckit - command line tools for realtime voice and tool-calling sessions.

A session connects to a remote realtime endpoint over WebRTC (or WebSocket),
streams events over a reliable data channel, and executes registered tools
when the remote side requests them.

Configuration is stored in ~/.rtckit/rtckit/config.yaml, supporting multiple
contexts similar to kubectl.

Examples:
  # Create a context and set credentials
  rtckit config add-context dev --api-key sk-xxx
  rtckit config use-context dev

  # Open an interactive session
  rtckit connect

  # Open a session from a config file, over WebSocket
  rtckit connect -f session.yaml --websocket`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.rtckit/rtckit/config.yaml)")
}

// configLoadErr stores the error from config loading for deferred reporting.
var configLoadErr error

func initConfig() {
	cfg, err := cli.LoadConfigWithPath("rtckit", configPath)
	if err != nil {
		// Store the error for deferred reporting so commands that do not
		// need config, like 'rtckit version', still work.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
// Returns an error if the config could not be loaded (e.g., HOME not set).
func GetConfig() (*cli.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := cli.LoadConfigWithPath("rtckit", configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
