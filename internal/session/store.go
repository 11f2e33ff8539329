// Package session implements the two-tier session facade: a persistent tier
// with a 24 hour lifetime and a short-lived tier with a 2 hour lifetime.
// The tiers are mutually exclusive; at most one holds a record at any time.
package session

import (
	"encoding/json"
	"time"
)

const (
	// PersistentMaxAge is the lifetime of a remembered session.
	PersistentMaxAge = 24 * time.Hour
	// ShortMaxAge is the lifetime of a session without remember-me.
	ShortMaxAge = 2 * time.Hour
)

// Record is the stored session state. LoginTime and IsLoggedIn are stamped
// by Save; everything else comes from the login response.
type Record struct {
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FullName   string    `json:"fullName"`
	Status     string    `json:"estado"`
	LastAccess string    `json:"ultimoAcceso"`
	IsLoggedIn bool      `json:"isLoggedIn"`
	LoginTime  time.Time `json:"loginTime"`
}

// Tier is one storage slot for the serialized session blob. Read returns
// (nil, nil) when the tier is empty.
type Tier interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Clear() error
}

// Store is the facade over both tiers. It is not safe for concurrent writers
// beyond last-write-wins, which matches the original contract.
type Store struct {
	persistent Tier
	short      Tier
	now        func() time.Time
}

// New builds a store over the given tiers.
func New(persistent, short Tier) *Store {
	return &Store{persistent: persistent, short: short, now: time.Now}
}

// Save writes the record to the chosen tier with IsLoggedIn set and the
// current login time, and clears the other tier so exactly one holds a value.
func (s *Store) Save(rec Record, persistent bool) error {
	rec.IsLoggedIn = true
	rec.LoginTime = s.now()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	target, other := s.short, s.persistent
	if persistent {
		target, other = s.persistent, s.short
	}
	if err := target.Write(data); err != nil {
		return err
	}
	_ = other.Clear()
	return nil
}

// Load reads the persistent tier first, falling back to the short-lived one.
// Expired or malformed data clears both tiers and yields nil. Storage errors
// are swallowed and treated as "no session": the store fails closed.
func (s *Store) Load() *Record {
	data, maxAge := s.read()
	if data == nil {
		return nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.Clear()
		return nil
	}
	if s.now().Sub(rec.LoginTime) > maxAge {
		s.Clear()
		return nil
	}
	return &rec
}

func (s *Store) read() ([]byte, time.Duration) {
	if data, err := s.persistent.Read(); err == nil && data != nil {
		return data, PersistentMaxAge
	}
	if data, err := s.short.Read(); err == nil && data != nil {
		return data, ShortMaxAge
	}
	return nil, 0
}

// Clear empties both tiers unconditionally.
func (s *Store) Clear() {
	_ = s.persistent.Clear()
	_ = s.short.Clear()
}

// IsAuthenticated reports whether a live session with a non-empty identity
// exists.
func (s *Store) IsAuthenticated() bool {
	rec := s.Load()
	return rec != nil && rec.Email != "" && rec.IsLoggedIn
}

// Identity returns the active session's email, or "" when there is none.
func (s *Store) Identity() string {
	if rec := s.Load(); rec != nil && rec.IsLoggedIn {
		return rec.Email
	}
	return ""
}
