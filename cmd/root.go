package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"uefbridge/internal/session"
)

// Exit codes for CLI commands.
// These follow common conventions so launcher scripts can distinguish
// recoverable from terminal failures.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeNoCredential indicates no bearer credential could be located
	// in any source.
	ExitCodeNoCredential = 2
	// ExitCodeAuthRejected indicates the host rejected the credential even
	// after a refresh; the session ended terminally.
	ExitCodeAuthRejected = 3
)

// configDir is the configuration directory. Empty selects the user config
// directory.
var configDir string

// rootCmd represents the base command for the uefbridge application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "uefbridge",
	Short: "Bridge a web widget into an LMS shell session",
	Long: `uefbridge runs the client side of the LMS extension-framework session
protocol: it announces itself to the shell, adopts the granted private
channel, authorizes with a bearer credential, registers a help-menu entry
and a navigation route, and opens panels that render the configured
embedded content.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles
// subcommands and flags. This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "uefbridge version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if errors.Is(err, session.ErrNoCredentialSource) {
		return ExitCodeNoCredential
	}

	var rejected *session.AuthRejectedError
	if errors.As(err, &rejected) {
		return ExitCodeAuthRejected
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"Configuration directory (default is $HOME/.config/uefbridge)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
