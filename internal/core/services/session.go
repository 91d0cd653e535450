package services

import "github.com/google/uuid"

// sessionIDLength is the number of UUID characters kept in a session id.
const sessionIDLength = 8

// NewSessionID returns a short random session identifier.
func NewSessionID() string {
	return uuid.NewString()[:sessionIDLength]
}
