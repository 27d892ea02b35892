package clock

import "time"

// Real returns the Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{
		C:         t.C,
		stopFunc:  t.Stop,
		resetFunc: t.Reset,
	}
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
