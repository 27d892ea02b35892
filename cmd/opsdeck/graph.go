package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck"
	"github.com/opsdeck/opsdeck/internal/presentation/graph"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	"github.com/opsdeck/opsdeck/pkg/chains"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the chain topology visualization",
	Long: `Inspects the view pipelines and outputs Mermaid diagrams (graph TD)
representing the chain logic, one per resource.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Topology is fixed at construction, so the demo stores are fine as
		// collaborators; nothing is called.
		fixtures := memory.NewFixtures()
		deck, err := opsdeck.New(fixtures.Collaborators())
		if err != nil {
			fmt.Printf("Error initializing opsdeck: %v\n", err)
			os.Exit(1)
		}
		webhooks := chains.NewWebhookChain(fixtures.Webhooks, fixtures.Jobs)

		for _, ch := range []*pipeline.Chain{
			deck.Jobs().View(),
			deck.Agents().View(),
			deck.Deployments().View(),
			deck.Queue().View(),
			webhooks.Pipeline(),
		} {
			fmt.Printf("%%%% %s\n", ch.Name())
			fmt.Print(graph.Mermaid(ch, nil))
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
