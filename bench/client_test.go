package bench

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samuel/go-zookeeper/zk"
	"github.com/stretchr/testify/require"
)

func TestWaitForSession(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		events  []zk.Event
		close   bool
		wantErr bool
	}{
		{
			name: "session established",
			events: []zk.Event{
				{Type: zk.EventSession, State: zk.StateConnecting},
				{Type: zk.EventSession, State: zk.StateConnected},
				{Type: zk.EventSession, State: zk.StateHasSession},
			},
		},
		{
			name:    "session expired",
			events:  []zk.Event{{Type: zk.EventSession, State: zk.StateExpired}},
			wantErr: true,
		},
		{
			name:    "auth failed",
			events:  []zk.Event{{Type: zk.EventSession, State: zk.StateAuthFailed}},
			wantErr: true,
		},
		{
			name:    "channel closed",
			events:  []zk.Event{{Type: zk.EventSession, State: zk.StateConnecting}},
			close:   true,
			wantErr: true,
		},
		{
			name:    "timeout",
			events:  []zk.Event{{Type: zk.EventSession, State: zk.StateConnecting}},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		ch := make(chan zk.Event, len(tc.events))
		for _, ev := range tc.events {
			ch <- ev
		}
		if tc.close {
			close(ch)
		}
		err := waitForSession(context.Background(), ch, 50*time.Millisecond)
		if tc.wantErr {
			require.Error(t, err, tc.name)
		} else {
			require.NoError(t, err, tc.name)
		}
	}
}

func TestWaitForSessionCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitForSession(ctx, make(chan zk.Event), time.Minute)
	require.ErrorContains(t, err, context.Canceled.Error())
}

func TestClientOperations(t *testing.T) {
	t.Parallel()

	e := newFakeEnsemble()
	client := newFakeClient(e)

	require.NoError(t, client.Create("/a", []byte("1")))
	exists, err := client.Exists("/a")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, client.Set("/a", []byte("22")))
	data, err := client.SyncRead("/a")
	require.NoError(t, err)
	require.Equal(t, "22", string(data))
	require.Equal(t, []string{"/a"}, e.callsOf("sync"))
	require.NoError(t, client.Create("/a/b", nil))
	children, err := client.Children("/a")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, children)
	require.ErrorIs(t, client.Delete("/a"), zk.ErrNotEmpty)
	require.NoError(t, client.Delete("/a/b"))
	require.NoError(t, client.Delete("/a"))
	_, err = client.Read("/a")
	require.ErrorIs(t, err, zk.ErrNoNode)

	client.Close()
	client.Close()
	require.Equal(t, 1, e.conns[0].closed)
}

func TestClientLog(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "cli_log.txt")
	clientLog, err := OpenClientLog(file)
	require.NoError(t, err)
	clientLog.Printf("connected to %s", "127.0.0.1:2181")
	require.NoError(t, clientLog.Close())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(content), "connected to 127.0.0.1:2181")
}
