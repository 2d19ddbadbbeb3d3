// Package charts holds saved dashboard chart configurations and builds
// warehouse queries from them.
package charts

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested chart does not exist.
var ErrNotFound = errors.New("chart not found")

// DataSource describes where a chart's data comes from: a fully
// qualified table or a custom SQL query.
type DataSource struct {
	Type        string `json:"type"` // "table" or "query"
	Catalog     string `json:"catalog,omitempty"`
	Schema      string `json:"schema,omitempty"`
	Table       string `json:"table,omitempty"`
	CustomQuery string `json:"customQuery,omitempty"`
}

// Dimensions names the chart axes.
type Dimensions struct {
	XAxis   string `json:"xAxis,omitempty"`
	YAxis   string `json:"yAxis,omitempty"`
	GroupBy string `json:"groupBy,omitempty"`
}

// Filter is a single WHERE-clause condition.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Chart is a saved chart configuration.
type Chart struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	ChartType   string     `json:"chartType,omitempty"`
	DataSource  DataSource `json:"dataSource"`
	Dimensions  Dimensions `json:"dimensions"`
	Filters     []Filter   `json:"filters,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Store keeps chart configurations in memory for the lifetime of the
// process. Nothing is persisted: callers must not assume charts survive
// a restart. All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	charts []Chart
}

// NewStore creates an empty chart store.
func NewStore() *Store {
	return &Store{}
}

// Save stores a chart, assigning an id and creation time when absent,
// and returns the stored value.
func (s *Store) Save(c Chart) Chart {
	if c.ID == "" {
		c.ID = "chart_" + uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = append(s.charts, c)
	return c
}

// List returns all saved charts in insertion order.
func (s *Store) List() []Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Chart, len(s.charts))
	copy(out, s.charts)
	return out
}

// Get returns the chart with the given id.
func (s *Store) Get(id string) (Chart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.charts {
		if c.ID == id {
			return c, nil
		}
	}
	return Chart{}, ErrNotFound
}

// Delete removes the chart with the given id. Deleting a chart that does
// not exist is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.charts[:0]
	for _, c := range s.charts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.charts = kept
}
