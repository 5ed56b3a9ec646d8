package game

import (
	"sync"
	"time"
)

// Scheduler runs f every interval until the returned cancel func is called
type Scheduler interface {
	Every(interval time.Duration, f func()) (cancel func())
}

// TickerScheduler delivers calls from a time.Ticker while holding lock, so they
// interleave with everything else done under the same lock.
type TickerScheduler struct {
	lock sync.Locker
}

// NewTickerScheduler creates a scheduler bound to the owner's lock
func NewTickerScheduler(lock sync.Locker) *TickerScheduler {
	return &TickerScheduler{lock: lock}
}

// Every starts a ticker goroutine. Cancel may be called with the lock held and
// no call is delivered once it has returned.
func (s *TickerScheduler) Every(interval time.Duration, f func()) func() {
	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			s.lock.Lock()
			select {
			case <-stop:
				s.lock.Unlock()
				return
			default:
			}
			f()
			s.lock.Unlock()
		}
	}()

	return func() {
		once.Do(func() { close(stop) })
	}
}

// ManualScheduler fires jobs only when advanced. Used in tests.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]func()
	order  []int
}

// NewManualScheduler creates an empty manual scheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]func())}
}

func (m *ManualScheduler) Every(_ time.Duration, f func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.jobs[id] = f
	m.order = append(m.order, id)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// Advance fires every live job n times, in registration order
func (m *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		for _, id := range m.snapshot() {
			m.mu.Lock()
			f, ok := m.jobs[id]
			m.mu.Unlock()
			if ok {
				f()
			}
		}
	}
}

// Pending returns the number of live jobs
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *ManualScheduler) snapshot() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.jobs))
	for _, id := range m.order {
		if _, ok := m.jobs[id]; ok {
			ids = append(ids, id)
		}
	}
	m.order = ids
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}
