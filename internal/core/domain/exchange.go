package domain

import "time"

// DefaultUserID is recorded when a request carries no user id.
const DefaultUserID = "anonymous"

// Exchange is one recorded user query and system answer within a session.
// Exchanges are immutable once written.
type Exchange struct {
	SessionID string
	UserID    string
	Query     string
	Answer    string
	Timestamp time.Time
}

// SessionSummary describes a session in the conversation store.
type SessionSummary struct {
	SessionID     string
	ExchangeCount int
	FirstAt       time.Time
	LastAt        time.Time
}
