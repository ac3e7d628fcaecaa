package bench

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samuel/go-zookeeper/zk"
)

// fakeEnsemble is an in-memory znode tree shared by every fakeConn dialed
// from it.
type fakeEnsemble struct {
	mu     sync.Mutex
	nodes  map[string][]byte
	calls  []string
	failOn map[string]error
	down   map[string]bool
	conns  []*fakeConn
}

func newFakeEnsemble() *fakeEnsemble {
	return &fakeEnsemble{
		nodes:  map[string][]byte{"/": nil},
		failOn: make(map[string]error),
		down:   make(map[string]bool),
	}
}

func (e *fakeEnsemble) dialer() Dialer {
	return func(_ context.Context, endpoint string, _ time.Duration) (Conn, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.down[endpoint] {
			return nil, fmt.Errorf("dial %s: connection refused", endpoint)
		}
		c := &fakeConn{ensemble: e, endpoint: endpoint}
		e.conns = append(e.conns, c)
		return c, nil
	}
}

// record logs the call and returns the injected failure for it, if any.
func (e *fakeEnsemble) record(op, p string) error {
	call := op + " " + p
	e.calls = append(e.calls, call)
	return e.failOn[call]
}

func (e *fakeEnsemble) callsOf(op string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, c := range e.calls {
		if strings.HasPrefix(c, op+" ") {
			out = append(out, strings.TrimPrefix(c, op+" "))
		}
	}
	return out
}

func (e *fakeEnsemble) has(p string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.nodes[p]
	return ok
}

func (e *fakeEnsemble) data(p string) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nodes[p]
}

func (e *fakeEnsemble) put(p string, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes[p] = data
}

func (e *fakeEnsemble) children(p string) []string {
	var out []string
	for n := range e.nodes {
		if n != "/" && path.Dir(n) == p {
			out = append(out, path.Base(n))
		}
	}
	sort.Strings(out)
	return out
}

type fakeConn struct {
	ensemble *fakeEnsemble
	endpoint string
	closed   int
}

func (c *fakeConn) Exists(p string) (bool, *zk.Stat, error) {
	e := c.ensemble
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("exists", p); err != nil {
		return false, nil, err
	}
	_, ok := e.nodes[p]
	return ok, &zk.Stat{}, nil
}

func (c *fakeConn) Create(p string, data []byte, _ int32, _ []zk.ACL) (string, error) {
	e := c.ensemble
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("create", p); err != nil {
		return "", err
	}
	if _, ok := e.nodes[p]; ok {
		return "", zk.ErrNodeExists
	}
	if _, ok := e.nodes[path.Dir(p)]; !ok {
		return "", zk.ErrNoNode
	}
	e.nodes[p] = append([]byte(nil), data...)
	return p, nil
}

func (c *fakeConn) Set(p string, data []byte, _ int32) (*zk.Stat, error) {
	e := c.ensemble
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("set", p); err != nil {
		return nil, err
	}
	if _, ok := e.nodes[p]; !ok {
		return nil, zk.ErrNoNode
	}
	e.nodes[p] = append([]byte(nil), data...)
	return &zk.Stat{}, nil
}

func (c *fakeConn) Get(p string) ([]byte, *zk.Stat, error) {
	e := c.ensemble
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("get", p); err != nil {
		return nil, nil, err
	}
	data, ok := e.nodes[p]
	if !ok {
		return nil, nil, zk.ErrNoNode
	}
	return data, &zk.Stat{}, nil
}

func (c *fakeConn) Sync(p string) (string, error) {
	e := c.ensemble
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("sync", p); err != nil {
		return "", err
	}
	return p, nil
}

func (c *fakeConn) Children(p string) ([]string, *zk.Stat, error) {
	e := c.ensemble
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("children", p); err != nil {
		return nil, nil, err
	}
	if _, ok := e.nodes[p]; !ok {
		return nil, nil, zk.ErrNoNode
	}
	return e.children(p), &zk.Stat{}, nil
}

func (c *fakeConn) Delete(p string, _ int32) error {
	e := c.ensemble
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("delete", p); err != nil {
		return err
	}
	if _, ok := e.nodes[p]; !ok {
		return zk.ErrNoNode
	}
	if len(e.children(p)) > 0 {
		return zk.ErrNotEmpty
	}
	delete(e.nodes, p)
	return nil
}

func (c *fakeConn) Close() {
	c.ensemble.mu.Lock()
	defer c.ensemble.mu.Unlock()
	c.closed++
}

func newFakeClient(e *fakeEnsemble) *Client {
	conn, _ := e.dialer()(context.Background(), "localhost:2181", time.Second)
	return &Client{Id: 0, EndPoint: "localhost:2181", Timeout: time.Second, Conn: conn}
}
