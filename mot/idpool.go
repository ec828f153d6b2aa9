package mot

import (
	"strings"

	"github.com/pkg/errors"
)

// IDAllocator hands out integer track identifiers.
// Trackers call Reset at the start of every update, MarkUsed for every reused identifier
// and Allocate for every detection that needs a new one.
type IDAllocator interface {
	Reset()
	Allocate() int
	MarkUsed(id int)
}

// PerCallAllocator only remembers identifiers used within the current update call.
// New identifier is 0 when nothing was used yet, otherwise max(used)+1.
//
// Since the set is emptied on every call, a new identifier may be equal to the identifier
// of an object seen earlier (e.g. two frames ago) if no detection of the current call reused
// a higher one. Use MonotonicAllocator if that is not acceptable.
type PerCallAllocator struct {
	used  map[int]struct{}
	maxID int
}

// NewPerCallAllocator creates new instance of PerCallAllocator
func NewPerCallAllocator() *PerCallAllocator {
	return &PerCallAllocator{
		used:  make(map[int]struct{}),
		maxID: -1,
	}
}

// Reset forgets every identifier used so far
func (pool *PerCallAllocator) Reset() {
	clear(pool.used)
	pool.maxID = -1
}

// Allocate returns next free identifier and marks it as used
func (pool *PerCallAllocator) Allocate() int {
	id := pool.maxID + 1
	pool.MarkUsed(id)
	return id
}

// MarkUsed marks given identifier as used within current call
func (pool *PerCallAllocator) MarkUsed(id int) {
	pool.used[id] = struct{}{}
	if id > pool.maxID {
		pool.maxID = id
	}
}

// IsUsed reports whether identifier has been used within current call
func (pool *PerCallAllocator) IsUsed(id int) bool {
	_, ok := pool.used[id]
	return ok
}

// MonotonicAllocator is a lifetime counter: an identifier is never handed out twice.
type MonotonicAllocator struct {
	next int
}

// NewMonotonicAllocator creates new instance of MonotonicAllocator starting from 0
func NewMonotonicAllocator() *MonotonicAllocator {
	return &MonotonicAllocator{}
}

// Reset does nothing: counter survives between calls
func (pool *MonotonicAllocator) Reset() {}

// Allocate returns next identifier of the counter
func (pool *MonotonicAllocator) Allocate() int {
	id := pool.next
	pool.next++
	return id
}

// MarkUsed moves counter past the given identifier if needed
func (pool *MonotonicAllocator) MarkUsed(id int) {
	if id >= pool.next {
		pool.next = id + 1
	}
}

// AllocatorKind names ID allocation strategy
type AllocatorKind uint16

const (
	// AllocatorPerCall resets used identifiers on every update call
	AllocatorPerCall AllocatorKind = iota
	// AllocatorMonotonic never reissues an identifier
	AllocatorMonotonic
)

func (kind AllocatorKind) String() string {
	switch kind {
	case AllocatorMonotonic:
		return "monotonic"
	default:
		return "per_call"
	}
}

// ParseAllocatorKind parses "per_call" or "monotonic" (case insensitive). Empty string means per_call.
func ParseAllocatorKind(s string) (AllocatorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per_call":
		return AllocatorPerCall, nil
	case "monotonic":
		return AllocatorMonotonic, nil
	}
	return AllocatorPerCall, errors.Errorf("unknown allocator '%s'", s)
}

// NewAllocator creates allocator of the given kind
func NewAllocator(kind AllocatorKind) IDAllocator {
	if kind == AllocatorMonotonic {
		return NewMonotonicAllocator()
	}
	return NewPerCallAllocator()
}
