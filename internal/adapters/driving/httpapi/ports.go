package httpapi

import "github.com/custodia-labs/ragchat/internal/core/ports/driving"

// Ports holds the driving ports the HTTP API calls.
type Ports struct {
	Answer  driving.AnswerService
	History driving.HistoryService

	// Index is optional. GET /index answers 404 without it.
	Index driving.IndexInspector
}

// Validate checks that the required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.History == nil {
		return ErrMissingHistoryService
	}
	return nil
}
