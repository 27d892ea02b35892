package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opsdeck/opsdeck"
	"github.com/opsdeck/opsdeck/internal/logging"
	"github.com/opsdeck/opsdeck/internal/presentation/tui"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render the live dashboard in the terminal",
	Long: `Opens the full dashboard - jobs, agents, deployments and queue - and keeps
it refreshed according to your refresh mode preference (off, efficient, live).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("mode") {
			cfg.Refresh.Mode, _ = cmd.Flags().GetString("mode")
		}
		user, _ := cmd.Flags().GetString("user")

		logger := logging.New(cfg.LogLevel())

		deck, err := buildDeck(cfg, logger, user)
		if err != nil {
			fmt.Printf("Error initializing opsdeck: %v\n", err)
			os.Exit(1)
		}

		width := 100
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}

		tui.PrintBanner()

		output := termenv.NewOutput(os.Stdout)
		output.AltScreen()
		output.HideCursor()
		restore := func() {
			output.ShowCursor()
			output.ExitAltScreen()
		}

		runner := &opsdeck.Runner{
			Output: output,
			Clear:  func() { output.ClearScreen() },
			Render: func(f opsdeck.Frame) string {
				return tui.RenderDashboard(tui.Dashboard{
					GeneratedAt: f.GeneratedAt,
					Mode:        string(f.Mode),
					Jobs:        f.Jobs,
					Agents:      f.Agents,
					Deployments: f.Deployments,
					Queue:       f.Queue,
					Stats:       f.Stats,
				}, width)
			},
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = runner.Run(ctx, deck)
		restore()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("opsdeck stopped")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("mode", "m", "", "Refresh mode for this session: off, efficient or live")
	watchCmd.Flags().StringP("user", "u", "default", "Preference profile to load and save")
}
