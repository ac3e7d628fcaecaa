package bench

import (
	"context"

	"github.com/google/uuid"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Benchmark measures ZooKeeper operation latency against a dedicated root
// node.
type Benchmark struct {
	Config
	RunID string

	dial      Dialer
	endpoints []string
	stats     []PhaseStat
	rows      int
}

type Option func(b *Benchmark)

// WithDialer replaces the go-zookeeper dialer.
func WithDialer(dial Dialer) Option {
	return func(b *Benchmark) {
		b.dial = dial
	}
}

func New(cfg Config, opts ...Option) (*Benchmark, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Benchmark{Config: cfg, RunID: uuid.NewString()}
	for _, opt := range opts {
		opt(b)
	}
	if b.dial == nil {
		b.dial = ZKDialer(nil)
	}
	return b, nil
}

// Run resolves the servers, opens every session, claims the root node,
// measures on the first session and removes the root node. Sessions are
// closed on every path out of Run.
func (self *Benchmark) Run(ctx context.Context) error {
	self.stats, self.rows = nil, 0
	endpoints, err := ResolveServers(self.Config)
	if err != nil {
		return err
	}
	self.endpoints = endpoints
	log.Info("start latency test",
		zap.String("runID", self.RunID),
		zap.Strings("endpoints", endpoints),
		zap.String("root", self.RootZnode),
		zap.Int("znodeCount", self.ZnodeCount),
		zap.Int("znodeSize", self.ZnodeSize),
		zap.Int("watchMultiple", self.WatchMultiple),
		zap.Strings("sampleOps", self.SampleOps))

	// Every session is opened up front so that an unavailable server or a
	// missing quorum fails the run before any node is created.
	pool, err := OpenSessions(ctx, endpoints, self.Timeout, self.dial)
	if err != nil {
		return err
	}
	defer pool.CloseAll()

	guard := NewNamespaceGuard(pool.Primary(), self.RootZnode, self.Force)
	if err := guard.Claim(); err != nil {
		return err
	}

	// Only the primary session is measured; the others stay connected.
	primary := pool.Primary()
	log.Info("testing latencies", zap.String("runID", self.RunID), zap.String("server", primary.EndPoint))
	runner, err := NewLatencyRunner(primary, self.Config)
	if err != nil {
		return err
	}
	err = runner.Run(ctx)
	self.stats = append(self.stats, runner.Stats()...)
	self.rows += runner.Rows()
	if err != nil {
		return err
	}

	return guard.Teardown()
}

func (self *Benchmark) Endpoints() []string {
	return self.endpoints
}

// Stats returns the completed phases of the last Run.
func (self *Benchmark) Stats() []PhaseStat {
	return self.stats
}

// Rows is the number of samples written by the last Run.
func (self *Benchmark) Rows() int {
	return self.rows
}
