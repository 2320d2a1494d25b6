package clock

import "sync/atomic"

// Seq is a monotonic logical clock.
//
// Seq is safe for concurrent use, though the engine's single-writer loop is
// normally the only caller of Next.
type Seq struct {
	seq atomic.Int64
}

// NewSeq creates a clock whose first Next returns 1.
func NewSeq() *Seq {
	return &Seq{}
}

// NewSeqAt creates a clock that resumes after start.
func NewSeqAt(start int64) *Seq {
	s := &Seq{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Seq) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without advancing.
func (s *Seq) Current() int64 {
	return s.seq.Load()
}
