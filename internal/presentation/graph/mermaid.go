// Package graph renders chain topologies as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/opsdeck/opsdeck/pkg/pipeline"
)

// Overlay contains traversal state to visualize on the graph, typically the
// Path captured by a lifecycle hook after a run.
type Overlay struct {
	Visited []string
	Current string
}

// Mermaid produces Mermaid flowchart syntax for a chain's topology.
// It applies semantic styling:
// - Entry link: ((Circle))
// - Terminal link (no outgoing edges): [[Subroutine]]
// - Default: [Rectangle]
// Conditional edges are dashed; predicates are opaque functions, so the edge
// carries no label. Overlay styles (Visited/Current) are applied if provided.
func Mermaid(ch *pipeline.Chain, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	links := ch.Links()
	edges := ch.Edges()

	outgoing := make(map[string]bool, len(edges))
	for _, e := range edges {
		outgoing[e.From] = true
	}

	for i, name := range links {
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))" // Circle
		case !outgoing[name]:
			opener, closer = "[[", "]]" // Subroutine
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, name, closer))
	}

	for _, e := range edges {
		arrow := "-->"
		if e.Conditional {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.Current)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
