package sampler

import (
	"sync"

	"cputop/internal/domain"
)

// recordingSink forwards to next and remembers every snapshot it was offered.
// When trigger is set, fired is closed the first time that snapshot arrives.
type recordingSink struct {
	next Sink

	trigger domain.Snapshot
	fired   chan struct{}
	once    sync.Once

	mu  sync.Mutex
	got []domain.Snapshot
}

func (r *recordingSink) Receive(u domain.Update) error {
	var err error
	if r.next != nil {
		err = r.next.Receive(u)
	}

	r.mu.Lock()
	r.got = append(r.got, u.Snapshot.Clone())
	r.mu.Unlock()

	if r.trigger != nil && u.Snapshot.Equal(r.trigger) {
		r.once.Do(func() { close(r.fired) })
	}

	return err
}

func (r *recordingSink) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.got)
}

func (r *recordingSink) snapshots() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Snapshot, len(r.got))
	copy(out, r.got)
	return out
}
