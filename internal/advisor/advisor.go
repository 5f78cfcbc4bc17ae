// Package advisor turns an install failure into remediation advice.
package advisor

import (
	"context"
	"strings"

	"github.com/sourceplane/devsetup/internal/logging"
	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/shell"
)

// Advisor produces remediation advice. It never fails; every internal error
// degrades to heuristic advice.
type Advisor interface {
	Suggest(ctx context.Context, failure model.InstallFailure, hints []string, credential string) model.RemediationAdvice
}

// Service combines the heuristics with an optional external client
type Service struct {
	client *Client
	logger logging.Logger
}

// New returns an advisor. A nil client means heuristics only.
func New(client *Client, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Service{client: client, logger: logger}
}

func (s *Service) Suggest(ctx context.Context, failure model.InstallFailure, hints []string, credential string) model.RemediationAdvice {
	fallback := Heuristic(failure, hints)
	fallback.Commands = shell.FilterAllowed(fallback.Commands)

	if s.client == nil || strings.TrimSpace(credential) == "" {
		return fallback
	}

	payload, err := s.client.Advise(ctx, failure, hints, credential)
	if err != nil {
		s.logger.Log(logging.LevelWarning, "External advisor unavailable", map[string]string{
			"component": failure.ComponentID,
			"error":     err.Error(),
		})
		fallback.Notes = "AI guidance unavailable: " + err.Error()
		return fallback
	}

	commands := shell.FilterAllowed(payload.Commands)
	if len(commands) == 0 {
		s.logger.Log(logging.LevelWarning, "External advisor returned only blocked commands", map[string]string{
			"component": failure.ComponentID,
		})
		fallback.Notes = "AI returned only blocked commands. Showing safe fallback guidance."
		return fallback
	}

	return model.RemediationAdvice{
		Summary:  payload.Summary,
		Commands: commands,
		Notes:    payload.Notes,
		Source:   model.AdviceExternal,
	}
}
