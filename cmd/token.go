package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// tokenCmd groups credential-store subcommands.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage stored bearer credentials",
}

// tokenStatusCmd lists the stored credentials. Token values are never
// printed.
var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored credentials and their expiry",
	Args:  cobra.NoArgs,
	RunE:  runTokenStatus,
}

// tokenSetCmd stores a bearer credential under a storage key.
var tokenSetCmd = &cobra.Command{
	Use:   "set <key> <access-token>",
	Short: "Store a bearer credential",
	Args:  cobra.ExactArgs(2),
	RunE:  runTokenSet,
}

// tokenDeleteCmd removes a stored credential.
var tokenDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenDelete,
}

// tokenSetRefresh optionally stores a refresh token alongside the access
// token.
var tokenSetRefresh string

func runTokenStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadBridgeConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	keys := store.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No credentials stored.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Key", "State", "Expires", "Refreshable"})

	for _, key := range keys {
		cred := store.Get(key)
		if cred == nil {
			continue
		}

		state := text.FgGreen.Sprint("valid")
		if !cred.Valid() {
			state = text.FgRed.Sprint("expired")
		}

		expires := "never"
		if !cred.Expiry.IsZero() {
			expires = cred.Expiry.Local().Format(time.RFC1123)
		}

		refreshable := "no"
		if cred.RefreshToken != "" {
			refreshable = "yes"
		}

		t.AppendRow(table.Row{key, state, expires, refreshable})
	}

	t.Render()
	return nil
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadBridgeConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	key := args[0]
	if err := store.Save(key, &oauth2.Token{
		AccessToken:  args[1],
		RefreshToken: tokenSetRefresh,
		TokenType:    "Bearer",
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Credential stored under %q.\n", key)
	return nil
}

func runTokenDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadBridgeConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Credential %q deleted.\n", args[0])
	return nil
}

func init() {
	tokenSetCmd.Flags().StringVar(&tokenSetRefresh, "refresh-token", "", "Refresh token to store alongside the access token")

	tokenCmd.AddCommand(tokenStatusCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)
	rootCmd.AddCommand(tokenCmd)
}
