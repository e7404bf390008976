package presenter

import "sync"

// Display shows a complete view, replacing whatever was shown before.
type Display interface {
	Show(v View) error
}

// Recorder is an in-memory display. It keeps the last frame only.
type Recorder struct {
	mu     sync.Mutex
	last   View
	frames int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Show(v View) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bars := make([]Bar, len(v.Bars))
	copy(bars, v.Bars)

	r.last = View{Bars: bars}
	r.frames++
	return nil
}

func (r *Recorder) Last() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.last
}

func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.frames
}
