package bench

import (
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// SessionPool holds one session per endpoint.
type SessionPool struct {
	clients []*Client
}

// OpenSessions connects to every endpoint before returning, so an
// unavailable ensemble member fails the run before any node is created.
// On failure the sessions already opened are closed.
func OpenSessions(ctx context.Context, endpoints []string, timeout time.Duration, dial Dialer) (*SessionPool, error) {
	pool := &SessionPool{clients: make([]*Client, 0, len(endpoints))}
	for i, endpoint := range endpoints {
		log.Info("open session", zap.Int("session", i), zap.String("endpoint", endpoint),
			zap.Duration("timeout", timeout))
		conn, err := dial(ctx, endpoint, timeout)
		if err != nil {
			pool.CloseAll()
			return nil, WrapError(ErrConnection, err, endpoint)
		}
		pool.clients = append(pool.clients, &Client{Id: i, EndPoint: endpoint, Timeout: timeout, Conn: conn})
	}
	if len(pool.clients) == 0 {
		return nil, ErrConfig.GenWithStackByArgs("no endpoints to connect to")
	}
	return pool, nil
}

// Primary is the session used for namespace setup and teardown.
func (self *SessionPool) Primary() *Client {
	return self.clients[0]
}

func (self *SessionPool) Clients() []*Client {
	return self.clients
}

func (self *SessionPool) Len() int {
	return len(self.clients)
}

// CloseAll closes every session. Sessions already closed are skipped.
func (self *SessionPool) CloseAll() {
	for _, client := range self.clients {
		client.Close()
	}
}
