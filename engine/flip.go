package engine

import "time"

// FlipQueue holds actions that run once, right after the next frame is
// committed. They receive the flip time.
type FlipQueue struct {
	pending []func(time.Time)
}

func (q *FlipQueue) CallOnFlip(fn func(time.Time)) {
	q.pending = append(q.pending, fn)
}

func (q *FlipQueue) Len() int {
	return len(q.pending)
}

// Drain runs the queued actions in order and empties the queue. Actions
// queued while draining wait for the following flip.
func (q *FlipQueue) Drain(at time.Time) {
	actions := q.pending
	q.pending = nil
	for _, fn := range actions {
		fn(at)
	}
}

// Display commits one frame and blocks until it is on screen. The returned
// time is the flip time.
type Display interface {
	Show(Scene) (time.Time, error)
}

// Flip shows scene on d and drains q with the flip time.
func Flip(d Display, q *FlipQueue, scene Scene) (time.Time, error) {
	at, err := d.Show(scene)
	if err != nil {
		return at, err
	}
	q.Drain(at)
	return at, nil
}

// Scene is everything drawn in one frame.
type Scene struct {
	Phase    Phase
	Fixation bool
	// Arrow points towards the cued side; zero draws no arrow.
	Arrow Hemifield
	Rects []Rect
	// Patch is the photodiode square: white during cue, array and probe.
	Patch  bool
	Text   string
	Prompt string
}

type Rect struct {
	Pos   Point
	Ori   int
	Color string
}

// Clock abstracts wall time so sequences can be driven in tests.
type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

// SystemClock is the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
