package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"uefbridge/internal/hostsim"
	"uefbridge/internal/session"
	"uefbridge/internal/transport"
)

// simulateToken is the bearer credential used against the simulated host.
var simulateToken string

// simulateCmd runs a session against an in-process simulated host with an
// interactive console for injecting host events.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a session against a simulated host",
	Long: `Runs the client session against an in-process host simulator instead of
a real shell gateway. An interactive console injects the events a real host
would emit, which makes the full panel lifecycle observable without an LMS.

Console commands:
  help             invoke the registered help-menu entry
  route <name>     navigate to a route
  close            dismiss the open panel
  panels           list panels the host has opened
  regs             list registered capabilities
  status           show the session state
  exit             quit the simulator`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadSessionConfig()
	if err != nil {
		return err
	}

	opts, err := buildSessionOptions(cfg, nil, simulateToken)
	if err != nil {
		return err
	}

	pipe := transport.NewPipe(cfg.HostOrigin)
	host := hostsim.New(pipe, hostsim.Options{})

	sess, err := session.New(pipe.Surface(), opts)
	if err != nil {
		return err
	}

	ctx, cancel := cancelableContext(cmd)
	defer cancel()
	go host.Run(ctx)
	go sess.Run(ctx)

	return console(cmd.OutOrStdout(), host, sess, cfg.Help.ID)
}

// console runs the interactive simulator prompt.
func console(out io.Writer, host *hostsim.Host, sess *session.Session, helpID string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(out, "Host simulator ready. Type a command, or 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			host.EmitHelpRequest(helpID)

		case "route":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: route <name>")
				continue
			}
			host.EmitRoute(fields[1])

		case "close":
			if err := host.ClosePanel(); err != nil {
				fmt.Fprintln(out, err)
			}

		case "panels":
			panels := host.Panels()
			if len(panels) == 0 {
				fmt.Fprintln(out, "no panels opened")
				continue
			}
			for _, p := range panels {
				fmt.Fprintf(out, "%s  %q  renders %s\n", p.PortalID, p.Title, p.RenderedURL)
			}

		case "regs":
			regs := host.Registrations()
			if len(regs) == 0 {
				fmt.Fprintln(out, "nothing registered yet")
				continue
			}
			for _, r := range regs {
				fmt.Fprintf(out, "%-6s %s (%s)\n", r.Kind, r.ID, r.DisplayName)
			}

		case "status":
			snap := sess.Snapshot()
			fmt.Fprintf(out, "channel=%v auth=%s help=%v route=%v panel=%s\n",
				snap.ChannelEstablished, snap.Auth, snap.HelpRegistered, snap.RouteRegistered, snap.Panel)

		case "exit", "quit":
			return nil

		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateToken, "token", "sim-token", "Bearer credential presented to the simulated host")
}
