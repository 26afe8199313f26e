// Package cli implements the voicechat terminal client.
package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarthi-ai/voicechat/pkg/logger"
)

var version = "dev"

var (
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "voicechat",
	Short: "Terminal client for the Sarthi voice chat server",
	Long: `voicechat talks to a Sarthi voice chat server. It can hold an
interactive chat over the real-time relay, list stored exchanges and log
new ones through the REST API.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			if log, err := logger.NewDevelopment(); err == nil {
				logger.SetGlobal(log)
			}
		} else {
			logger.SetGlobal(logger.NewNop())
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	_ = godotenv.Load()

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	defaultServer := os.Getenv("VOICECHAT_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:5000"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "server base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// relayURL derives the relay endpoint from the server base URL.
func relayURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
