package log

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// sampler keeps the first initial entries of each (level, message) pair and
// then every thereafter-th one.
type sampler struct {
	initial    uint64
	thereafter uint64
	counts     sync.Map // sampleKey -> *atomic.Uint64
}

type sampleKey struct {
	level slog.Level
	msg   string
}

func newSampler(initial, thereafter int) *sampler {
	return &sampler{
		initial:    uint64(max(initial, 0)),
		thereafter: uint64(max(thereafter, 1)),
	}
}

func (s *sampler) allow(level slog.Level, msg string) bool {
	v, _ := s.counts.LoadOrStore(sampleKey{level, msg}, new(atomic.Uint64))
	n := v.(*atomic.Uint64).Add(1) - 1
	if n < s.initial {
		return true
	}
	return (n-s.initial)%s.thereafter == 0
}
