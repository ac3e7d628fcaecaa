package bench

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/samuel/go-zookeeper/zk"
	"go.uber.org/zap"
)

// Conn is the part of the ZooKeeper client the benchmark uses. *zk.Conn
// satisfies it.
type Conn interface {
	Exists(path string) (bool, *zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	Set(path string, data []byte, version int32) (*zk.Stat, error)
	Get(path string) ([]byte, *zk.Stat, error)
	Sync(path string) (string, error)
	Children(path string) ([]string, *zk.Stat, error)
	Delete(path string, version int32) error
	Close()
}

// Dialer opens a Conn to a connect string and returns once a session is
// established.
type Dialer func(ctx context.Context, endpoint string, timeout time.Duration) (Conn, error)

var (
	zkCreateFlags = int32(0)
	zkCreateACL   = zk.WorldACL(zk.PermAll)
	zkAnyVersion  = int32(-1)
)

// Client is one session bound to one endpoint.
type Client struct {
	Id       int
	EndPoint string
	Timeout  time.Duration
	Conn     Conn

	closeOnce sync.Once
}

func (self *Client) Exists(rpath string) (bool, error) {
	exists, _, err := self.Conn.Exists(rpath)
	return exists, err
}

func (self *Client) Create(rpath string, data []byte) error {
	_, err := self.Conn.Create(rpath, data, zkCreateFlags, zkCreateACL)
	return err
}

func (self *Client) Set(rpath string, data []byte) error {
	_, err := self.Conn.Set(rpath, data, zkAnyVersion)
	return err
}

func (self *Client) Read(rpath string) ([]byte, error) {
	data, _, err := self.Conn.Get(rpath)
	return data, err
}

// SyncRead flushes the leader channel for rpath before reading it.
func (self *Client) SyncRead(rpath string) ([]byte, error) {
	if _, err := self.Conn.Sync(rpath); err != nil {
		return nil, err
	}
	return self.Read(rpath)
}

func (self *Client) Children(rpath string) ([]string, error) {
	children, _, err := self.Conn.Children(rpath)
	return children, err
}

func (self *Client) Delete(rpath string) error {
	return self.Conn.Delete(rpath, zkAnyVersion)
}

// Close closes the session. Only the first call reaches the connection.
func (self *Client) Close() {
	self.closeOnce.Do(func() {
		self.Conn.Close()
		log.Debug("session closed", zap.Int("session", self.Id), zap.String("endpoint", self.EndPoint))
	})
}

// ZKDialer returns a Dialer backed by go-zookeeper. Client library
// messages go to logger when it is non-nil.
func ZKDialer(logger zk.Logger) Dialer {
	return func(ctx context.Context, endpoint string, timeout time.Duration) (Conn, error) {
		var (
			conn   *zk.Conn
			events <-chan zk.Event
			err    error
		)
		servers := strings.Split(endpoint, ",")
		if logger != nil {
			conn, events, err = zk.Connect(servers, timeout, zk.WithLogger(logger))
		} else {
			conn, events, err = zk.Connect(servers, timeout)
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		if err := waitForSession(ctx, events, timeout); err != nil {
			conn.Close()
			return nil, err
		}
		go drainEvents(endpoint, events)
		return conn, nil
	}
}

// waitForSession blocks until the client reports an established session.
// zk.Connect returns before the handshake, so an unreachable server only
// shows up here.
func waitForSession(ctx context.Context, events <-chan zk.Event, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return errors.New("event channel closed before session was established")
			}
			switch ev.State {
			case zk.StateHasSession:
				return nil
			case zk.StateAuthFailed, zk.StateExpired:
				return errors.Errorf("session not established: %s", ev.State)
			}
		case <-timer.C:
			return errors.Errorf("no session within %v", timeout)
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		}
	}
}

func drainEvents(endpoint string, events <-chan zk.Event) {
	for ev := range events {
		log.Debug("zookeeper event",
			zap.String("endpoint", endpoint),
			zap.Stringer("state", ev.State),
			zap.Stringer("type", ev.Type),
			zap.String("path", ev.Path))
	}
}
