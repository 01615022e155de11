// Package session holds per-user transient dialogue state.
//
// A session exists only between flow start and commit/cancel. Nothing here
// is persisted; all in-progress flows are lost on restart.
package session

import (
	"sync"

	"github.com/shopspring/decimal"
	"gitlab.com/travelkit/wallet-bot/internal/exchange"
)

// Phase identifies the dialogue state a user is in.
type Phase int

const (
	// PhaseSourceCountry waits for the home country of a new trip.
	PhaseSourceCountry Phase = iota + 1
	// PhaseDestCountry waits for the destination country.
	PhaseDestCountry
	// PhaseRateConfirm waits for the user to accept or reject the fetched rate.
	PhaseRateConfirm
	// PhaseManualRate waits for a manually typed exchange rate.
	PhaseManualRate
	// PhaseInitialBalance waits for the starting amount in the source currency.
	PhaseInitialBalance
	// PhaseNewRate waits for a replacement rate for the active trip.
	PhaseNewRate
)

// String returns a short label for logs.
func (p Phase) String() string {
	switch p {
	case PhaseSourceCountry:
		return "source_country"
	case PhaseDestCountry:
		return "dest_country"
	case PhaseRateConfirm:
		return "rate_confirm"
	case PhaseManualRate:
		return "manual_rate"
	case PhaseInitialBalance:
		return "initial_balance"
	case PhaseNewRate:
		return "new_rate"
	default:
		return "unknown"
	}
}

// TripDraft collects the fields of a trip being created, one per turn.
type TripDraft struct {
	SourceCountry  string
	DestCountry    string
	SourceCurrency string
	DestCurrency   string
	Rate           decimal.Decimal
	RateSource     exchange.RateSource
}

// Session is one user's in-progress dialogue flow.
type Session struct {
	Phase Phase
	// Draft is populated during trip creation phases.
	Draft TripDraft
	// RateTripID is the trip being updated during PhaseNewRate.
	RateTripID int64
}

// Store keeps at most one Session per user. Handlers for a single user run
// sequentially, so the lock only guards the map itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Start begins a new flow for the user, replacing any existing session.
func (s *Store) Start(userID int64, phase Phase) *Session {
	sess := &Session{Phase: phase}
	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the user's active session, if any.
func (s *Store) Get(userID int64) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	return sess, ok
}

// End discards the user's session. Safe to call when none exists.
func (s *Store) End(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Active reports whether the user has a flow in progress.
func (s *Store) Active(userID int64) bool {
	_, ok := s.Get(userID)
	return ok
}
