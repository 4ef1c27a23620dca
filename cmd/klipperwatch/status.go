package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"klipperwatch/internal/printer"
	"klipperwatch/internal/printstate"
)

var (
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	phaseColors = map[printstate.Phase]lipgloss.Color{
		printstate.PhasePrinting: lipgloss.Color("39"),
		printstate.PhasePaused:   lipgloss.Color("214"),
		printstate.PhaseComplete: lipgloss.Color("42"),
		printstate.PhaseError:    lipgloss.Color("196"),
		printstate.PhaseNotReady: lipgloss.Color("196"),
		printstate.PhaseStandby:  lipgloss.Color("245"),
	}
)

func newStatusCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query the printer once and print the status report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := commandConfig(cmd, opts)
			if err != nil {
				return err
			}
			client, err := printer.NewClient(printer.ClientConfig{
				BaseURL:            cfg.PrinterURL,
				AccessClientID:     cfg.AccessClientID,
				AccessClientSecret: cfg.AccessClientSecret,
				Timeout:            cfg.RequestTimeout(),
			})
			if err != nil {
				return err
			}
			out, err := statusOutput(cmd.Context(), client, opts.plain)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print the bare report without styling")
	return cmd
}

// statusOutput fetches once and renders the report. On failure the rendered
// text describes the failure and the error is returned as well.
func statusOutput(ctx context.Context, f printer.StatusFetcher, plain bool) (string, error) {
	snap, err := f.Fetch(ctx, printer.FetchOptions{WithEstimate: true})
	if err != nil {
		msg := "Printer unreachable: " + err.Error()
		if plain {
			return msg, err
		}
		return boxStyle.Render(errorStyle.Render(msg)), err
	}
	report := printstate.Report(snap)
	if plain {
		return report, nil
	}
	return renderReport(printstate.Interpret(snap), report), nil
}

func renderReport(st printstate.State, report string) string {
	phase := lipgloss.NewStyle().Bold(true)
	if c, ok := phaseColors[st.Phase]; ok {
		phase = phase.Foreground(c)
	}
	header := titleStyle.Render("klipperwatch") + "  " + phase.Render(strings.ToUpper(st.Phase.String()))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", report))
}
