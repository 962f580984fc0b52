package main

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/pe-ge/cda/engine"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	if d > 0 {
		c.now = c.now.Add(d)
	}
}

// fakeScreen advances the clock by one frame per Show and answers Wait from
// a script. Poll never sees a press, so every probe times out.
type fakeScreen struct {
	clock   *fakeClock
	period  time.Duration
	waits   []string
	shows   int
	splash  []string
	noStart bool
}

func (s *fakeScreen) Show(engine.Scene) (time.Time, error) {
	s.shows++
	s.clock.now = s.clock.now.Add(s.period)
	return s.clock.now, nil
}

func (s *fakeScreen) Poll([]string) (string, bool) { return "", false }

func (s *fakeScreen) Wait(ctx context.Context, codes []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for len(s.waits) > 0 {
		code := s.waits[0]
		s.waits = s.waits[1:]
		if slices.Contains(codes, code) {
			return code, nil
		}
	}
	return "", errors.New("input script exhausted")
}

func (s *fakeScreen) Clear() {}

func (s *fakeScreen) Discard([]string) {}

func (s *fakeScreen) Splash(_ context.Context, path string) (bool, error) {
	s.splash = append(s.splash, path)
	return !s.noStart, nil
}
