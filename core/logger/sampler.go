package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio lets num out of every den events through.
type ratio struct {
	num, den uint64
	seen     atomic.Uint64
}

// ratioSampler thins high-volume debug events. A zero ratio disables sampling.
type ratioSampler struct {
	cur atomic.Pointer[ratio]
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the ratio and restarts counting. Non-positive values let everything through.
func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		s.cur.Store(nil)
		return
	}
	s.cur.Store(&ratio{num: uint64(min(num, den)), den: uint64(den)})
}

// Allow reports whether the next event passes.
func (s *ratioSampler) Allow() bool {
	r := s.cur.Load()
	if r == nil {
		return true
	}
	return (r.seen.Add(1)-1)%r.den < r.num
}

// parseRatioSpec reads "num/den" or "den" (meaning 1/den). Anything else yields 0, 0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if head, tail, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(head))
		den, err2 := strconv.Atoi(strings.TrimSpace(tail))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	den, err := strconv.Atoi(spec)
	if err != nil || den <= 0 {
		return 0, 0
	}
	return 1, den
}
