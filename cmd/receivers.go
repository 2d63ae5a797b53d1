// File: cmd/receivers.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/receiver"
	"github.com/xkilldash9x/uipilot/internal/service"
)

// receiverView is one registry entry as printed by the receivers command.
type receiverView struct {
	Root     string   `yaml:"root"`
	Receiver string   `yaml:"receiver,omitempty"`
	Family   string   `yaml:"family"`
	Suffix   string   `yaml:"suffix,omitempty"`
	Enabled  bool     `yaml:"enabled"`
	Commands []string `yaml:"commands,omitempty"`
}

// newReceiversCmd creates the `receivers` command.
func newReceiversCmd(opts *rootOptions) *cobra.Command {
	var (
		output       string
		withCommands bool
	)

	receiversCmd := &cobra.Command{
		Use:   "receivers",
		Short: "Lists the applications that have an API receiver and the commands they accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := service.InitializeRegistry(opts.cfg.Receivers(), observability.GetLogger())
			if err != nil {
				return err
			}
			views := receiverViews(registry, opts.cfg.Receivers().RootEnabled, withCommands)

			out := cmd.OutOrStdout()
			switch output {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(map[string]any{"receivers": views, "control": controlSignatures()}); err != nil {
					return fmt.Errorf("failed to encode receivers: %w", err)
				}
				return enc.Close()
			case "text":
				printReceivers(out, views, withCommands)
				return nil
			default:
				return fmt.Errorf("unsupported output format %q (use text or yaml)", output)
			}
		},
	}

	receiversCmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")
	receiversCmd.Flags().BoolVar(&withCommands, "commands", false, "include the command signatures of each receiver")
	return receiversCmd
}

func receiverViews(registry *receiver.Registry, enabled func(string) bool, withCommands bool) []receiverView {
	entries := registry.Entries()
	views := make([]receiverView, 0, len(entries))
	for _, e := range entries {
		v := receiverView{
			Root:     e.Root,
			Receiver: string(e.Receiver),
			Family:   e.Family,
			Suffix:   e.Suffix,
			Enabled:  e.Receiver != "" && enabled(e.Root),
		}
		if withCommands {
			v.Commands = signatures(kindCommands(e))
		}
		views = append(views, v)
	}
	return views
}

// kindCommands lists the commands of an entry's receiver kind. Building a
// receiver without an object is safe as long as no command is run.
func kindCommands(e receiver.Entry) []receiver.Command {
	switch e.Receiver {
	case receiver.KindDocument:
		return receiver.NewDocumentReceiver(e, nil).Commands()
	case receiver.KindBrowser:
		return receiver.NewBrowserReceiver(e, nil).Commands()
	}
	return nil
}

func controlSignatures() []string {
	return signatures(receiver.NewControlReceiver(nil).Commands())
}

func signatures(commands []receiver.Command) []string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = c.Signature()
	}
	return out
}

func printReceivers(out io.Writer, views []receiverView, withCommands bool) {
	fmt.Fprintf(out, "%-14s %-10s %-24s %s\n", "ROOT", "RECEIVER", "FAMILY", "ENABLED")
	for _, v := range views {
		kind := v.Receiver
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(out, "%-14s %-10s %-24s %t\n", v.Root, kind, v.Family, v.Enabled)
		for _, sig := range v.Commands {
			fmt.Fprintf(out, "    %s\n", sig)
		}
	}
	if withCommands {
		fmt.Fprintln(out, "\nControl commands (every window):")
		for _, sig := range controlSignatures() {
			fmt.Fprintf(out, "    %s\n", sig)
		}
	}
}
