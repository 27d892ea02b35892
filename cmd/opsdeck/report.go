package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opsdeck/opsdeck"
	"github.com/opsdeck/opsdeck/internal/logging"
	"github.com/opsdeck/opsdeck/internal/presentation/tui"
	"github.com/opsdeck/opsdeck/pkg/refresh"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a one-shot status report",
	Long: `Fetches every view once and prints a markdown status report. On a terminal
the markdown is rendered with ANSI styling; when piped, the raw markdown comes
through unchanged for pasting into issues or chat.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		logger := logging.New(cfg.LogLevel())

		deck, err := buildDeck(cfg, logger, "default",
			opsdeck.WithRefreshMode(refresh.ModeOff),
		)
		if err != nil {
			fmt.Printf("Error initializing opsdeck: %v\n", err)
			os.Exit(1)
		}

		ctx := cmd.Context()
		if err := deck.RefreshAll(ctx); err != nil {
			// Partial data still renders; failed sections come up empty.
			logger.Warn("some views failed to refresh", "err", err)
		}

		frame := deck.Frame()
		markdown := tui.Report{
			GeneratedAt: frame.GeneratedAt,
			Jobs:        frame.Jobs.Data,
			Agents:      frame.Agents.Data,
			Deployments: frame.Deployments.Data,
			Queue:       frame.Queue.Data,
			Stats:       frame.Stats,
		}.Markdown()

		raw, _ := cmd.Flags().GetBool("raw")
		if !raw && term.IsTerminal(int(os.Stdout.Fd())) {
			width := 100
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
			render := tui.NewRenderer(width)
			if rendered, err := render(markdown); err == nil {
				fmt.Print(rendered)
				return
			}
		}
		fmt.Print(markdown)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Bool("raw", false, "Print raw markdown even on a terminal")
}
