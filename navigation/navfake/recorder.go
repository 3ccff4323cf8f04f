package navfake

import (
	"context"
	"sync"
)

// Recorder is a Navigator that records redirect targets instead of
// leaving the page.
type Recorder struct {
	mu      sync.Mutex
	targets []string

	// Err, when set, is returned by every Redirect call.
	Err error
	// OnRedirect runs before the target is recorded.
	OnRedirect func(target string)
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Redirect(_ context.Context, target string) error {
	if r.OnRedirect != nil {
		r.OnRedirect(target)
	}
	if r.Err != nil {
		return r.Err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, target)
	return nil
}

// Targets returns a copy of every recorded redirect target.
func (r *Recorder) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

// Last returns the most recent target, or "" when nothing was recorded.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.targets) == 0 {
		return ""
	}
	return r.targets[len(r.targets)-1]
}
