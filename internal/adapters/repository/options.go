package repository

import "github.com/okian/fanpulse/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithInitialCapacity presizes the catalogue.
func WithInitialCapacity(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.byID = make(map[string]model.RawEvent, n)
		}
	}
}
