package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand/v2"
	"slices"
	"time"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func quietLogger() *log.Logger {
	return bufLogger(io.Discard)
}

func bufLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

type fakeClock struct {
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	if d > 0 {
		c.now = c.now.Add(d)
	}
}

// fakeDisplay advances the clock by one frame per Show.
type fakeDisplay struct {
	clock  *fakeClock
	period time.Duration
	scenes []Scene
	flips  []time.Time
	failAt int
}

func (d *fakeDisplay) Show(s Scene) (time.Time, error) {
	if d.failAt > 0 && len(d.scenes)+1 == d.failAt {
		return time.Time{}, errors.New("display lost")
	}
	d.clock.now = d.clock.now.Add(d.period)
	d.scenes = append(d.scenes, s)
	d.flips = append(d.flips, d.clock.now)
	return d.clock.now, nil
}

type press struct {
	at   time.Time
	code string
}

// fakeInput serves timed presses to Poll and a separate script to Wait.
type fakeInput struct {
	clock   *fakeClock
	presses []press
	waits   []string
	cleared int
}

func (in *fakeInput) Poll(codes []string) (string, bool) {
	for i, p := range in.presses {
		if !p.at.After(in.clock.now) && slices.Contains(codes, p.code) {
			in.presses = slices.Delete(in.presses, i, i+1)
			return p.code, true
		}
	}
	return "", false
}

func (in *fakeInput) Wait(ctx context.Context, codes []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for len(in.waits) > 0 {
		code := in.waits[0]
		in.waits = in.waits[1:]
		if slices.Contains(codes, code) {
			return code, nil
		}
	}
	return "", errors.New("input script exhausted")
}

func (in *fakeInput) Clear() {
	in.cleared++
	kept := in.presses[:0]
	for _, p := range in.presses {
		if p.at.After(in.clock.now) {
			kept = append(kept, p)
		}
	}
	in.presses = kept
}

func (in *fakeInput) Discard(codes []string) {
	in.presses = slices.DeleteFunc(in.presses, func(p press) bool {
		return !p.at.After(in.clock.now) && slices.Contains(codes, p.code)
	})
}

type sent struct {
	code byte
	at   time.Time
}

type fakeTrigger struct {
	clock *fakeClock
	sent  []sent
	err   error
}

func (f *fakeTrigger) Send(code byte) error {
	f.sent = append(f.sent, sent{code: code, at: f.clock.now})
	return f.err
}

func (f *fakeTrigger) codes() []byte {
	out := make([]byte, len(f.sent))
	for i, s := range f.sent {
		out[i] = s.code
	}
	return out
}

type memSink struct {
	rows []Row
	err  error
}

func (m *memSink) Append(r Row) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, r)
	return nil
}
