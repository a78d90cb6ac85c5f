package service

import (
	"sync"
	"time"

	"github.com/okian/cardcognition/internal/domain/types"
)

// progress reports every `every` completed cards and once at completion.
type progress struct {
	mu    sync.Mutex
	done  int
	total int
	every int
	start time.Time
	hook  ProgressFunc
}

func newProgress(total, every int, hook ProgressFunc) *progress {
	return &progress{total: total, every: every, start: time.Now(), hook: hook}
}

func (p *progress) tick() {
	if p.hook == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if p.done%p.every != 0 && p.done != p.total {
		return
	}
	p.hook(snapshot(p.done, p.total, time.Since(p.start)))
}

// snapshot computes the fraction done and the remaining time estimate
// elapsed*(1-f)/f.
func snapshot(done, total int, elapsed time.Duration) types.Progress {
	out := types.Progress{Done: done, Total: total, Elapsed: elapsed.Seconds()}
	if total <= 0 || done <= 0 {
		return out
	}
	out.Fraction = float64(done) / float64(total)
	out.Remaining = out.Elapsed * (1 - out.Fraction) / out.Fraction
	return out
}
