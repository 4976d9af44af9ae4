package web

import (
	"sync"
	"time"

	"github.com/Veraticus/ragassist/internal/chat"
)

// flashTTL bounds how long an error waits for the redirected GET.
const flashTTL = time.Minute

type flash struct {
	err     *chat.TurnError
	created time.Time
}

// flashes holds the turn error of a POST until the session's next page view.
type flashes struct {
	pending map[string]flash
	now     func() time.Time
	mu      sync.Mutex
}

func newFlashes() *flashes {
	return &flashes{
		pending: make(map[string]flash),
		now:     time.Now,
	}
}

func (f *flashes) set(sessionID string, err *chat.TurnError) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for id, fl := range f.pending {
		if now.Sub(fl.created) > flashTTL {
			delete(f.pending, id)
		}
	}
	f.pending[sessionID] = flash{err: err, created: now}
}

// pop returns the pending error for sessionID and forgets it.
func (f *flashes) pop(sessionID string) *chat.TurnError {
	f.mu.Lock()
	defer f.mu.Unlock()

	fl, ok := f.pending[sessionID]
	if !ok {
		return nil
	}
	delete(f.pending, sessionID)
	if f.now().Sub(fl.created) > flashTTL {
		return nil
	}
	return fl.err
}

func (f *flashes) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
