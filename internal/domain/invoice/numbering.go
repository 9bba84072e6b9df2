package invoice

import (
	"fmt"
	"sync"
	"time"
)

// Sequence hands out invoice numbers of the form FAC-YYYYMMDD-NNNN. Numbers
// are monotonic within a process; the date prefix keeps them sortable and
// human legible across restarts.
type Sequence struct {
	mu   sync.Mutex
	next int
	now  func() time.Time
}

func NewSequence() *Sequence {
	return &Sequence{next: 1, now: time.Now}
}

// Next returns a fresh invoice number. Numbers are never reused, including
// when issuance later fails. The date prefix is taken in UTC so it always
// agrees with the emission timestamp.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.next
	s.next++
	return fmt.Sprintf("FAC-%s-%04d", s.now().UTC().Format("20060102"), n)
}
