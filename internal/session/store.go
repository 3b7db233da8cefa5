// Package session keeps parsed statements for a limited time so a later
// request can download a report for them by handle.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// ErrNotFound is returned for unknown or expired handles.
var ErrNotFound = errors.New("session not found or expired")

// Store maps opaque handles to the transactions of one analysis.
type Store struct {
	c *cache.Cache
}

// NewStore returns a Store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{c: cache.New(ttl, 2*ttl)}
}

// Save stores txns and returns a new handle.
func (s *Store) Save(txns []models.Transaction) string {
	id := uuid.NewString()
	stored := make([]models.Transaction, len(txns))
	copy(stored, txns)
	s.c.SetDefault(id, stored)
	return id
}

// Get returns the transactions saved under id.
func (s *Store) Get(id string) ([]models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	v, ok := s.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return v.([]models.Transaction), nil
}

// Delete forgets a handle.
func (s *Store) Delete(id string) {
	s.c.Delete(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.c.ItemCount()
}
