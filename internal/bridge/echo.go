package bridge

import "sync"

// echoKey identifies one event the bridge originated itself. Item and
// serialized value are separate fields so that unrelated items whose
// concatenated forms collide stay distinct.
type echoKey struct {
	item       string
	serialized string
}

// echoStore is a counted multiset of events the bridge has published
// and must not translate back when they return from the other bus.
// One record is consumed per matching observation.
type echoStore struct {
	mu      sync.Mutex
	records map[echoKey]int
}

func newEchoStore() *echoStore {
	return &echoStore{records: make(map[echoKey]int)}
}

// Add remembers one occurrence of (item, serialized).
func (s *echoStore) Add(item, serialized string) {
	key := echoKey{item: item, serialized: serialized}

	s.mu.Lock()
	s.records[key]++
	s.mu.Unlock()
}

// Consume removes one matching record and reports whether one existed.
func (s *echoStore) Consume(item, serialized string) bool {
	key := echoKey{item: item, serialized: serialized}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, ok := s.records[key]
	if !ok {
		return false
	}
	if count <= 1 {
		delete(s.records, key)
	} else {
		s.records[key] = count - 1
	}
	return true
}

// Len returns the number of outstanding records.
func (s *echoStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, count := range s.records {
		total += count
	}
	return total
}
