package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/store/sqlite"
)

var stepMarks = map[model.StepStatus]string{
	model.StepPending:   "○",
	model.StepRunning:   "◐",
	model.StepSucceeded: "●",
	model.StepFailed:    "✗",
}

// StepLine renders one step state change
func (r *Renderer) StepLine(state model.StepState) string {
	name := state.Component.Name
	if name == "" {
		name = state.ComponentID
	}
	mark := stepMarks[state.Status]
	line := fmt.Sprintf("%s %d. %s", mark, state.Position+1, name)

	switch state.Status {
	case model.StepSucceeded:
		line = okStyle.Render(line)
		if state.LatestOutput == "Already installed" {
			line += dimStyle.Render("  (already installed)")
		}
	case model.StepFailed:
		line = failStyle.Render(line)
	case model.StepRunning:
		line = runningStyle.Render(line)
	default:
		line = dimStyle.Render(line)
	}
	return line
}

// Failure renders the failed component, its output tail and remediation advice
func (r *Renderer) Failure(failure *model.InstallFailure, advice *model.RemediationAdvice, notice string) string {
	if failure == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(failStyle.Render("Install failed: "+failure.ComponentName) + "\n")
	if failure.Command != "" {
		label := "Command"
		if failure.Kind == model.FailureVerification {
			label = "Check"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", label, commandStyle.Render(failure.Command)))
	}
	exit := fmt.Sprintf("Exit code: %d", failure.ExitCode)
	if failure.TimedOut {
		exit += " (timed out)"
	}
	sb.WriteString(exit + "\n")
	if out := tail(failure.Output, 12); out != "" {
		sb.WriteString(dimStyle.Render(out) + "\n")
	}
	if notice != "" {
		sb.WriteString("\n" + notice + "\n")
	}

	if advice != nil {
		sb.WriteString("\n" + r.Advice(*advice) + "\n")
	}
	return sb.String()
}

// Advice renders remediation advice in a bordered box
func (r *Renderer) Advice(advice model.RemediationAdvice) string {
	var body strings.Builder
	body.WriteString(titleStyle.Render("Suggested fix") + dimStyle.Render(" ("+string(advice.Source)+")") + "\n")
	body.WriteString(advice.Summary)
	for i, cmd := range advice.Commands {
		body.WriteString(fmt.Sprintf("\n  %d. %s", i+1, commandStyle.Render(cmd)))
	}
	if advice.Notes != "" {
		body.WriteString("\n" + dimStyle.Render(advice.Notes))
	}
	return adviceStyle.Render(body.String())
}

// Runs renders the run history table
func (r *Renderer) Runs(records []sqlite.RunRecord) string {
	if len(records) == 0 {
		return "No runs recorded"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%-36s  %-10s  %-7s  %-20s  %s", "RUN", "STATUS", "ARCH", "STARTED", "FAILED")) + "\n")
	for _, rec := range records {
		status := rec.Status
		switch model.RunState(rec.Status) {
		case model.RunCompleted:
			status = okStyle.Render(fmt.Sprintf("%-10s", status))
		case model.RunFailed:
			status = failStyle.Render(fmt.Sprintf("%-10s", status))
		default:
			status = fmt.Sprintf("%-10s", status)
		}
		sb.WriteString(fmt.Sprintf("%-36s  %s  %-7s  %-20s  %s\n",
			rec.RunID, status, rec.Architecture, rec.StartedAt.Local().Format(time.DateTime), rec.FailedComponent))
	}
	return sb.String()
}

// RunDetail renders one run with its steps
func (r *Renderer) RunDetail(rec sqlite.RunRecord, steps []sqlite.StepRecord) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Run "+rec.RunID) + "\n")
	sb.WriteString(fmt.Sprintf("Status: %s\nArchitecture: %s\nCatalog: %s\nStarted: %s\n",
		rec.Status, rec.Architecture, rec.CatalogSource, rec.StartedAt.Local().Format(time.DateTime)))
	if !rec.EndedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Ended: %s\n", rec.EndedAt.Local().Format(time.DateTime)))
	}
	if rec.LastError != "" {
		sb.WriteString(failStyle.Render("Error: "+rec.LastError) + "\n")
	}
	if rec.AdviceSource != "" {
		sb.WriteString(fmt.Sprintf("Advice: %s\n", rec.AdviceSource))
	}
	sb.WriteString(ruleStyle.Render(rule) + "\n")
	for _, st := range steps {
		sb.WriteString(r.StepLine(model.StepState{
			Position:     st.Position,
			ComponentID:  st.ComponentID,
			Status:       model.StepStatus(st.Status),
			LatestOutput: st.Output,
		}) + "\n")
	}
	return sb.String()
}

func tail(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
