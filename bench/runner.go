package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// opHandler issues one operation and returns the number of payload bytes
// it carried.
type opHandler func(c *Client, rpath string, data []byte) (int, error)

type phase struct {
	kind    OpKind
	verb    string
	handler opHandler
	sampled bool
}

// LatencyRunner runs the create, set and delete phases over
// <root>/session_<i> on a single session, one operation at a time.
type LatencyRunner struct {
	client  *Client
	root    string
	count   int
	payload []byte
	sampled OpSet
	csvFile string

	newSink func(path string) (SampleSink, error)
	now     func() time.Time

	stats []PhaseStat
	rows  int
}

func NewLatencyRunner(client *Client, cfg Config) (*LatencyRunner, error) {
	sampled, err := ParseOpKinds(cfg.SampleOps)
	if err != nil {
		return nil, err
	}
	return &LatencyRunner{
		client:  client,
		root:    cfg.RootZnode,
		count:   cfg.ZnodeCount,
		payload: cfg.Payload(),
		sampled: sampled,
		csvFile: cfg.CSVFile,
		now:     time.Now,
		newSink: func(path string) (SampleSink, error) {
			s, err := CreateCSVSink(path)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}, nil
}

func childPath(root string, i int) string {
	return fmt.Sprintf("%s/session_%d", root, i)
}

// plan lists the phases in execution order. Create and delete always run,
// timed in aggregate unless sampled; read phases run only when sampled.
func (self *LatencyRunner) plan() []phase {
	phases := []phase{
		{kind: OpCreate, verb: "create", handler: func(c *Client, p string, data []byte) (int, error) {
			return len(data), c.Create(p, data)
		}},
		{kind: OpWrite, verb: "set", handler: func(c *Client, p string, data []byte) (int, error) {
			return len(data), c.Set(p, data)
		}},
		{kind: OpRead, verb: "get", handler: func(c *Client, p string, _ []byte) (int, error) {
			got, err := c.Read(p)
			return len(got), err
		}},
		{kind: OpSyncRead, verb: "sync and get", handler: func(c *Client, p string, _ []byte) (int, error) {
			got, err := c.SyncRead(p)
			return len(got), err
		}},
		{kind: OpDelete, verb: "delete", handler: func(c *Client, p string, _ []byte) (int, error) {
			return 0, c.Delete(p)
		}},
	}
	plan := phases[:0]
	for _, ph := range phases {
		ph.sampled = self.sampled.Has(ph.kind)
		if !ph.sampled && ph.kind != OpCreate && ph.kind != OpDelete {
			continue
		}
		plan = append(plan, ph)
	}
	return plan
}

// Run executes every phase. The sample file is opened before the first
// sampled phase and closed after the last one, or when a phase fails.
// Samples written before a failure are kept.
func (self *LatencyRunner) Run(ctx context.Context) (err error) {
	plan := self.plan()
	lastSampled := -1
	for i, ph := range plan {
		if ph.sampled {
			lastSampled = i
		}
	}

	var sink SampleSink
	defer func() {
		if sink != nil {
			err = multierr.Append(err, sink.Close())
		}
	}()

	for i, ph := range plan {
		if !ph.sampled {
			if err := self.runAggregate(ctx, ph); err != nil {
				return err
			}
			continue
		}
		if sink == nil {
			s, err := self.newSink(self.csvFile)
			if err != nil {
				return err
			}
			sink = s
		}
		if err := self.runSampled(ctx, ph, sink); err != nil {
			return err
		}
		if i == lastSampled {
			closeErr := sink.Close()
			sink = nil
			if closeErr != nil {
				return closeErr
			}
		}
	}
	return nil
}

// runAggregate times the whole phase as one measurement.
func (self *LatencyRunner) runAggregate(ctx context.Context, ph phase) error {
	start := self.now()
	for i := 0; i < self.count; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		p := childPath(self.root, i)
		if _, err := ph.handler(self.client, p, self.payload); err != nil {
			return WrapError(ErrOperation, err, ph.verb, p)
		}
	}
	self.record(PhaseStat{Kind: ph.kind, Ops: self.count, Elapsed: self.now().Sub(start)})
	return nil
}

// runSampled times each operation and writes one sample per operation.
func (self *LatencyRunner) runSampled(ctx context.Context, ph phase, sink SampleSink) error {
	anchor := self.now()
	epoch := time.Duration(anchor.UnixNano())
	var total time.Duration
	for i := 0; i < self.count; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		p := childPath(self.root, i)
		s1 := self.now()
		size, err := ph.handler(self.client, p, self.payload)
		s2 := self.now()
		if err != nil {
			return WrapError(ErrOperation, err, ph.verb, p)
		}
		d := s2.Sub(s1)
		total += d
		// Offsets from one anchor keep timestamps non-decreasing even if
		// the wall clock steps.
		err = sink.Write(LatencySample{
			Timestamp: epoch + s1.Sub(anchor),
			Index:     i,
			Latency:   d,
			Size:      size,
			Kind:      ph.kind,
		})
		if err != nil {
			return err
		}
		self.rows++
	}
	self.record(PhaseStat{Kind: ph.kind, Ops: self.count, Elapsed: total, Sampled: true})
	return nil
}

func (self *LatencyRunner) record(stat PhaseStat) {
	self.stats = append(self.stats, stat)
	log.Info("phase finished",
		zap.String("op", stat.Kind.String()),
		zap.Int("znodes", stat.Ops),
		zap.Bool("sampled", stat.Sampled),
		zap.Duration("elapsed", stat.Elapsed),
		zap.Float64("msPerOp", stat.MsPerOp()),
		zap.Float64("opsPerSec", stat.Throughput()))
}

// Stats returns the phases completed so far.
func (self *LatencyRunner) Stats() []PhaseStat {
	return self.stats
}

// Rows is the number of samples written.
func (self *LatencyRunner) Rows() int {
	return self.rows
}
