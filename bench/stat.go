package bench

import (
	"fmt"
	"strings"
	"time"
)

type OpKind uint32

const (
	OpCreate OpKind = 1 << iota
	OpWrite
	OpRead
	OpSyncRead
	OpDelete
)

// opOrder is the order phases run in.
var opOrder = []OpKind{OpCreate, OpWrite, OpRead, OpSyncRead, OpDelete}

func (self OpKind) String() string {
	switch self {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	case OpSyncRead:
		return "sync-read"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// OpSet is a bit set of OpKind.
type OpSet uint32

func (self OpSet) Has(kind OpKind) bool {
	return uint32(self)&uint32(kind) != 0
}

func (self OpSet) String() string {
	var names []string
	for _, kind := range opOrder {
		if self.Has(kind) {
			names = append(names, kind.String())
		}
	}
	return strings.Join(names, ",")
}

// ParseOpKinds turns op kind labels into a set. Writes are always
// sampled, so the result includes OpWrite.
func ParseOpKinds(names []string) (OpSet, error) {
	set := OpSet(OpWrite)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		found := false
		for _, kind := range opOrder {
			if kind.String() == name {
				set |= OpSet(kind)
				found = true
				break
			}
		}
		if !found {
			return 0, ErrConfig.GenWithStackByArgs(fmt.Sprintf("unknown sample op %q", name))
		}
	}
	return set, nil
}

// LatencySample is one timed operation.
type LatencySample struct {
	Timestamp time.Duration // since the Unix epoch
	Index     int
	Latency   time.Duration
	Size      int
	Kind      OpKind
}

// PhaseStat summarizes one completed phase.
type PhaseStat struct {
	Kind OpKind
	Ops  int
	// Elapsed is wall time for aggregate phases and the sum of the
	// per-operation latencies for sampled ones.
	Elapsed time.Duration
	Sampled bool
}

func (self PhaseStat) String() string {
	msg := fmt.Sprintf("%-9s %7d znodes", self.Kind, self.Ops)
	ms := self.Elapsed.Milliseconds()
	if ms == 0 || self.Ops == 0 {
		return fmt.Sprintf("%s in %6d ms (included in prior)", msg, ms)
	}
	return fmt.Sprintf("%s in %6d ms (%f ms/op %f/sec)", msg, ms, self.MsPerOp(), self.Throughput())
}

func (self PhaseStat) MsPerOp() float64 {
	if self.Ops == 0 {
		return 0
	}
	return float64(self.Elapsed.Nanoseconds()) / 1e6 / float64(self.Ops)
}

func (self PhaseStat) Throughput() float64 {
	if self.Elapsed <= 0 {
		return 0
	}
	return float64(self.Ops) / self.Elapsed.Seconds()
}
