package solver

import (
	"sync"
	"sync/atomic"
)

// staging hands out the buffers packed for a single engine call. Every
// acquire is paired with a deferred release by the caller.
type staging struct {
	floats      sync.Pool
	ints        sync.Pool
	outstanding atomic.Int64
}

func (s *staging) acquireFloats(n int) *[]float32 {
	s.outstanding.Add(1)
	if p, ok := s.floats.Get().(*[]float32); ok && cap(*p) >= n {
		*p = (*p)[:n]
		clear(*p)
		return p
	}
	buf := make([]float32, n)
	return &buf
}

func (s *staging) releaseFloats(p *[]float32) {
	s.outstanding.Add(-1)
	s.floats.Put(p)
}

func (s *staging) acquireInts(n int) *[]int32 {
	s.outstanding.Add(1)
	if p, ok := s.ints.Get().(*[]int32); ok && cap(*p) >= n {
		*p = (*p)[:n]
		clear(*p)
		return p
	}
	buf := make([]int32, n)
	return &buf
}

func (s *staging) releaseInts(p *[]int32) {
	s.outstanding.Add(-1)
	s.ints.Put(p)
}
