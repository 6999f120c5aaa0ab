package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// Result kinds
const (
	KindSimulation     = "simulation"
	KindRiskAssessment = "risk_assessment"
	KindSuggestion     = "suggestion"
)

// Record is a stored computation result
type Record struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
	Result    interface{} `json:"result"`
}

// InMemoryResultStore implements an in-memory result storage bounded to the
// most recent maxEntries records
type InMemoryResultStore struct {
	records    map[string]Record
	order      []string
	maxEntries int
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewInMemoryResultStore creates a new in-memory result store
func NewInMemoryResultStore(maxEntries int) *InMemoryResultStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &InMemoryResultStore{
		records:    make(map[string]Record),
		maxEntries: maxEntries,
		log:        logger.GetLogger("store.results"),
	}
}

// NewID returns a fresh result identifier
func NewID() string {
	return uuid.NewString()
}

// Save stores result under id, evicting the oldest record when full
func (s *InMemoryResultStore) Save(id, kind string, result interface{}) error {
	if id == "" {
		return errors.InvalidArgument("result ID cannot be empty")
	}
	if result == nil {
		return errors.InvalidArgument("cannot save nil result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		s.order = append(s.order, id)
	}
	s.records[id] = Record{ID: id, Kind: kind, CreatedAt: time.Now().UTC(), Result: result}

	for len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.records, oldest)
		s.log.Debugw("Evicted result", "id", oldest)
	}
	return nil
}

// Get retrieves a result by ID
func (s *InMemoryResultStore) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return Record{}, errors.NotFound("result not found: " + id)
	}
	return record, nil
}

// Delete removes a result by ID
func (s *InMemoryResultStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return errors.NotFound("result not found: " + id)
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored results
func (s *InMemoryResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
