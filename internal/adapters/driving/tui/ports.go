// Package tui provides the interactive chat terminal user interface.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Answer runs the chat pipeline.
	Answer driving.AnswerService

	// History lists and reloads past sessions. Optional.
	History driving.HistoryService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
