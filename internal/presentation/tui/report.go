package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/pkg/domain"
)

// Report holds the data assembled into the markdown status report.
type Report struct {
	GeneratedAt time.Time
	Jobs        []domain.Job
	Agents      []domain.Agent
	Deployments []domain.Deployment
	Queue       []domain.QueuedJob
	Stats       *domain.QueueStats
}

// Markdown renders the report document. Callers pipe it through NewRenderer
// for terminals or emit it raw for files and pagers.
func (r Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# opsdeck status report\n\nGenerated %s\n\n", r.GeneratedAt.Format(time.RFC1123))

	fmt.Fprintf(&sb, "## Jobs (%d)\n\n", len(r.Jobs))
	if len(r.Jobs) == 0 {
		sb.WriteString("No jobs.\n\n")
	} else {
		sb.WriteString("| ID | Name | Type | Status | Priority | Agent | Duration |\n")
		sb.WriteString("|---|---|---|---|---|---|---|\n")
		for _, j := range r.Jobs {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
				j.ID, j.Name, j.Type, j.Status, j.Priority, orDash(j.AgentID), mdDuration(j.DurationSeconds))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Agents (%d)\n\n", len(r.Agents))
	if len(r.Agents) == 0 {
		sb.WriteString("No agents.\n\n")
	} else {
		sb.WriteString("| Name | Status | Pool | Region | Jobs | Version |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, a := range r.Agents {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d/%d | %s |\n",
				a.Name, a.Status, a.PoolID, a.Region, a.CurrentJobCount, a.MaxConcurrentJobs, a.Version)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Deployments (%d)\n\n", len(r.Deployments))
	if len(r.Deployments) == 0 {
		sb.WriteString("No deployments.\n\n")
	} else {
		sb.WriteString("| Service | Version | Status | Region | Commit | Production |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, d := range r.Deployments {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
				d.ServiceName, d.ServiceVersion, d.Status, d.Region, d.GitCommitSHA, mdTime(d.ProductionAt))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Queue (%d)\n\n", len(r.Queue))
	if len(r.Queue) == 0 {
		sb.WriteString("Queue is empty.\n\n")
	} else {
		sb.WriteString("| ID | Name | Pool | Priority | Status | Attempt | Claimed by |\n")
		sb.WriteString("|---|---|---|---|---|---|---|\n")
		for _, q := range r.Queue {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %d/%d | %s |\n",
				q.ID, q.Name, q.PoolID, q.Priority, q.Status, q.Attempt, q.MaxAttempts, orDash(q.ClaimedBy))
		}
		sb.WriteString("\n")
	}

	if r.Stats != nil {
		sb.WriteString("## Queue health\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|---|---|\n")
		fmt.Fprintf(&sb, "| Queued | %d |\n", r.Stats.TotalQueued)
		fmt.Fprintf(&sb, "| Claimed | %d |\n", r.Stats.TotalClaimed)
		fmt.Fprintf(&sb, "| Running | %d |\n", r.Stats.TotalRunning)
		fmt.Fprintf(&sb, "| Completed | %d |\n", r.Stats.TotalCompleted)
		fmt.Fprintf(&sb, "| Failed | %d |\n", r.Stats.TotalFailed)
		fmt.Fprintf(&sb, "| Dead-lettered | %d |\n", r.Stats.TotalDeadLettered)
		fmt.Fprintf(&sb, "| Avg queue wait | %.1fs |\n", r.Stats.AvgQueueWaitSeconds)
		fmt.Fprintf(&sb, "| P95 queue wait | %.1fs |\n", r.Stats.P95QueueWaitSeconds)
		fmt.Fprintf(&sb, "| Avg execution | %.1fs |\n", r.Stats.AvgExecutionSeconds)
		fmt.Fprintf(&sb, "| Failure rate | %.0f%% |\n", r.Stats.FailureRate*100)
		sb.WriteString("\n")
	}

	return sb.String()
}

func mdDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0fs", seconds)
}

func mdTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
