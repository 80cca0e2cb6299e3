package app

import (
	"sync"
	"time"
)

// Ticker drives the one-tick-per-second quiz clock. Start always cancels the
// previous tick loop before arming a new one, so a forgotten Stop can never
// produce two concurrent tickers racing the same countdown.
type Ticker struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewTicker creates a ticker firing at the given interval. Zero or negative
// means one second, the production rate; tests inject shorter intervals.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{interval: interval}
}

// Start begins invoking onTick at the configured interval, stopping any
// previously armed loop first.
func (t *Ticker) Start(onTick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	stop := make(chan struct{})
	t.stop = stop
	go t.loop(stop, onTick)
}

// Stop cancels the outstanding tick loop. Idempotent. A tick already in
// flight may still deliver; attempt transitions are guarded, so a straggler
// after submission is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Ticker) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Ticker) loop(stop chan struct{}, onTick func()) {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			select {
			case <-stop:
				return
			default:
			}
			onTick()
		}
	}
}
