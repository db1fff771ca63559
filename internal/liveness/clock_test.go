package liveness

import (
	"time"

	"gocv.io/x/gocv"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func testConfig(clock *fakeClock) Config {
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	return cfg
}

type stubSaver struct {
	path  string
	err   error
	calls int
}

func (s *stubSaver) Save(frame *gocv.Mat) (string, error) {
	s.calls++
	return s.path, s.err
}
