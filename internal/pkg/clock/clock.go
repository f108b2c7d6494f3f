// Package clock abstracts wall-clock reads and id generation so the engine,
// tests and the replayer can force deterministic timestamps and ids.
package clock

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock supplies timestamps in unix milliseconds.
type Clock interface {
	NowMillis() int64
	Now() time.Time
}

// IDGenerator supplies globally unique event and session ids.
type IDGenerator interface {
	NewEventID() string
	NewSessionID() string
}

type systemClock struct{}

func (systemClock) NowMillis() int64 { return time.Now().UnixMilli() }
func (systemClock) Now() time.Time   { return time.Now() }

// System returns a Clock backed by the wall clock.
func System() Clock { return systemClock{} }

type uuidGenerator struct{}

func (uuidGenerator) NewEventID() string   { return "evt-" + uuid.NewString() }
func (uuidGenerator) NewSessionID() string { return "ses-" + uuid.NewString() }

// UUID returns an IDGenerator backed by random UUIDs.
func UUID() IDGenerator { return uuidGenerator{} }

// Fixed is a deterministic Clock for tests: it starts at a base time and
// advances by Step on every read.
type Fixed struct {
	base int64
	step int64
	n    atomic.Int64
}

// NewFixed creates a Fixed clock starting at baseMillis, advancing stepMillis
// per NowMillis call.
func NewFixed(baseMillis, stepMillis int64) *Fixed {
	return &Fixed{base: baseMillis, step: stepMillis}
}

func (f *Fixed) NowMillis() int64 {
	n := f.n.Add(1) - 1
	return f.base + n*f.step
}

func (f *Fixed) Now() time.Time {
	return time.UnixMilli(f.NowMillis())
}

// Sequence is a deterministic IDGenerator for tests.
type Sequence struct {
	prefix string
	n      atomic.Int64
}

// NewSequence creates a Sequence generator with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) next(kind string) string {
	return s.prefix + kind + "-" + itoa(s.n.Add(1))
}

func (s *Sequence) NewEventID() string   { return s.next("evt") }
func (s *Sequence) NewSessionID() string { return s.next("ses") }

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
