package assignment

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

const DefaultCooldown = 5 * time.Minute

// CooldownStore remembers when each booking was last assigned.
type CooldownStore interface {
	LastAssigned(ctx context.Context, bookingID int64) (time.Time, bool, error)
	Record(ctx context.Context, bookingID int64, at time.Time, window time.Duration) error
}

type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("Vui lòng đợi %s để thay đổi tài xế/xe", FormatRemaining(e.Remaining))
}

// Seconds rounds up so a client never retries a moment too early.
func (e *CooldownError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// FormatRemaining renders a wait as m:ss.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// remaining is how much of the window is left after last.
func remaining(last, now time.Time, window time.Duration) time.Duration {
	left := window - now.Sub(last)
	if left < 0 {
		return 0
	}
	return left
}

// MemoryCooldownStore keeps cooldowns in process. Entries past their window
// are dropped on read.
type MemoryCooldownStore struct {
	mu      sync.Mutex
	entries map[int64]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	at        time.Time
	expiresAt time.Time
}

func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{
		entries: make(map[int64]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryCooldownStore) LastAssigned(_ context.Context, bookingID int64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[bookingID]
	if !ok {
		return time.Time{}, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, bookingID)
		return time.Time{}, false, nil
	}
	return entry.at, true, nil
}

func (s *MemoryCooldownStore) Record(_ context.Context, bookingID int64, at time.Time, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[bookingID] = memoryEntry{at: at, expiresAt: at.Add(window)}
	return nil
}
