package advisor

import (
	"strings"

	"github.com/sourceplane/devsetup/internal/gitssh"
	"github.com/sourceplane/devsetup/internal/model"
)

// Heuristic matches the failure against known signatures, falling back to
// generic "rerun and investigate" advice. Notes carry the component's hints.
func Heuristic(failure model.InstallFailure, hints []string) model.RemediationAdvice {
	output := strings.ToLower(failure.Output)
	notes := strings.Join(hints, " ")

	switch {
	case strings.Contains(output, "not found") && strings.Contains(failure.Command, "brew"):
		return model.RemediationAdvice{
			Summary: "Homebrew is unavailable in your current shell context.",
			Commands: []string{
				`eval "$(/opt/homebrew/bin/brew shellenv)"`,
				"brew doctor",
			},
			Notes:  notes,
			Source: model.AdviceHeuristics,
		}
	case strings.Contains(output, "xcode-select") || failure.ComponentID == "xcode-cli-tools":
		return model.RemediationAdvice{
			Summary: "Xcode Command Line Tools are not fully installed yet.",
			Commands: []string{
				"xcode-select --install",
				"xcode-select -p",
			},
			Notes:  notes,
			Source: model.AdviceHeuristics,
		}
	case failure.ComponentID == "gh-auth":
		return model.RemediationAdvice{
			Summary: "GitHub authentication needs to be completed before setup can finish.",
			Commands: []string{
				gitssh.GitHubLoginCommand,
				gitssh.GitHubStatusCommand,
			},
			Notes:  notes,
			Source: model.AdviceHeuristics,
		}
	}

	commands := make([]string, 0, 2)
	if strings.TrimSpace(failure.Command) != "" {
		commands = append(commands, failure.Command)
	}
	commands = append(commands, `echo "Retry after resolving the error above."`)
	return model.RemediationAdvice{
		Summary:  "The step failed. Use the suggested commands to gather details and retry.",
		Commands: commands,
		Notes:    notes,
		Source:   model.AdviceHeuristics,
	}
}
