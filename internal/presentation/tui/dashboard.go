package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/view"
)

// Dashboard is the assembled state for one render pass of the watch screen.
type Dashboard struct {
	GeneratedAt time.Time
	Mode        string
	Jobs        view.Snapshot[domain.Job]
	Agents      view.Snapshot[domain.Agent]
	Deployments view.Snapshot[domain.Deployment]
	Queue       view.Snapshot[domain.QueuedJob]
	Stats       *domain.QueueStats
}

// RenderDashboard lays out the four views as fixed-width tables. Wide
// terminals get a wider name column; colored cells keep their visible width
// so columns stay aligned.
func RenderDashboard(d Dashboard, width int) string {
	nameWidth := 24
	if width >= 110 {
		nameWidth = 34
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", Bold(fmt.Sprintf("opsdeck · %s · refreshed %s", d.Mode, d.GeneratedAt.Format("15:04:05"))))

	renderJobs(&sb, d.Jobs, nameWidth)
	renderAgents(&sb, d.Agents, d.GeneratedAt)
	renderDeployments(&sb, d.Deployments)
	renderQueue(&sb, d.Queue, d.Stats)

	return sb.String()
}

func sectionTitle(sb *strings.Builder, name string, n int, loading bool, err error) {
	title := fmt.Sprintf("%s (%d)", name, n)
	if loading {
		title += " · refreshing"
	}
	sb.WriteString(Bold(title) + "\n")
	if err != nil {
		sb.WriteString(Warn(fmt.Sprintf("  last refresh failed: %v · showing previous data", err)) + "\n")
	}
}

func renderJobs(sb *strings.Builder, snap view.Snapshot[domain.Job], nameWidth int) {
	sectionTitle(sb, "JOBS", len(snap.Data), snap.Loading, snap.Err)
	if len(snap.Data) == 0 {
		sb.WriteString(Dim("  no jobs") + "\n\n")
		return
	}
	fmt.Fprintf(sb, "  %-18s %-*s %-8s %-14s %-9s %s\n", "ID", nameWidth, "NAME", "TYPE", "STATUS", "PRIORITY", "AGENT")
	for _, j := range snap.Data {
		fmt.Fprintf(sb, "  %-18s %-*s %-8s %s %-9s %s\n",
			truncate(j.ID, 18), nameWidth, truncate(j.Name, nameWidth), truncate(j.Type, 8),
			Status(fmt.Sprintf("%-14s", j.Status)), j.Priority, orDash(truncate(j.AgentID, 18)))
	}
	sb.WriteString("\n")
}

func renderAgents(sb *strings.Builder, snap view.Snapshot[domain.Agent], now time.Time) {
	sectionTitle(sb, "AGENTS", len(snap.Data), snap.Loading, snap.Err)
	if len(snap.Data) == 0 {
		sb.WriteString(Dim("  no agents") + "\n\n")
		return
	}
	fmt.Fprintf(sb, "  %-16s %-10s %-13s %-11s %-6s %s\n", "NAME", "STATUS", "POOL", "REGION", "JOBS", "HEARTBEAT")
	for _, a := range snap.Data {
		fmt.Fprintf(sb, "  %-16s %s %-13s %-11s %-6s %s\n",
			truncate(a.Name, 16), Status(fmt.Sprintf("%-10s", a.Status)),
			truncate(a.PoolID, 13), a.Region,
			fmt.Sprintf("%d/%d", a.CurrentJobCount, a.MaxConcurrentJobs),
			Dim(ago(a.LastHeartbeat, now)))
	}
	sb.WriteString("\n")
}

func renderDeployments(sb *strings.Builder, snap view.Snapshot[domain.Deployment]) {
	sectionTitle(sb, "DEPLOYMENTS", len(snap.Data), snap.Loading, snap.Err)
	if len(snap.Data) == 0 {
		sb.WriteString(Dim("  no deployments") + "\n\n")
		return
	}
	fmt.Fprintf(sb, "  %-16s %-10s %-13s %-11s %s\n", "SERVICE", "VERSION", "STATUS", "REGION", "COMMIT")
	for _, dep := range snap.Data {
		fmt.Fprintf(sb, "  %-16s %-10s %s %-11s %s\n",
			truncate(dep.ServiceName, 16), truncate(dep.ServiceVersion, 10),
			Status(fmt.Sprintf("%-13s", dep.Status)), dep.Region, Dim(dep.GitCommitSHA))
	}
	sb.WriteString("\n")
}

func renderQueue(sb *strings.Builder, snap view.Snapshot[domain.QueuedJob], stats *domain.QueueStats) {
	sectionTitle(sb, "QUEUE", len(snap.Data), snap.Loading, snap.Err)
	if len(snap.Data) == 0 {
		sb.WriteString(Dim("  queue is empty") + "\n")
	} else {
		fmt.Fprintf(sb, "  %-18s %-24s %-13s %-9s %-14s %-8s %s\n", "ID", "NAME", "POOL", "PRIORITY", "STATUS", "ATTEMPT", "CLAIMED BY")
		for _, q := range snap.Data {
			fmt.Fprintf(sb, "  %-18s %-24s %-13s %-9s %s %-8s %s\n",
				truncate(q.ID, 18), truncate(q.Name, 24), truncate(q.PoolID, 13), q.Priority,
				Status(fmt.Sprintf("%-14s", q.Status)),
				fmt.Sprintf("%d/%d", q.Attempt, q.MaxAttempts), orDash(truncate(q.ClaimedBy, 18)))
		}
	}
	if stats != nil {
		sb.WriteString(Dim(fmt.Sprintf(
			"  queued %d · claimed %d · running %d · completed %d · failed %d · dead-lettered %d · p95 wait %.1fs · failure rate %.0f%%",
			stats.TotalQueued, stats.TotalClaimed, stats.TotalRunning,
			stats.TotalCompleted, stats.TotalFailed, stats.TotalDeadLettered,
			stats.P95QueueWaitSeconds, stats.FailureRate*100)) + "\n")
	}
	sb.WriteString("\n")
}

// truncate shortens s to n bytes with an ASCII ellipsis, keeping the byte
// width equal to the visible width so %-*s padding stays honest.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 2 {
		return s[:n]
	}
	return s[:n-2] + ".."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func ago(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
