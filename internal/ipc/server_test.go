package ipc

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomtin/hyprconnect/internal/media"
	"github.com/roomtin/hyprconnect/internal/model"
)

// dispatcherFunc adapts a function to Dispatcher.
type dispatcherFunc func(ctx context.Context, req Request) Response

func (f dispatcherFunc) Handle(ctx context.Context, req Request) Response { return f(ctx, req) }

func startServer(t *testing.T, d Dispatcher) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hyprconnect.sock")
	ln, err := Listen(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(d, nil)
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, ln)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return path
}

func TestServer_MediaSeekRoundTrip(t *testing.T) {
	var got Request
	path := startServer(t, dispatcherFunc(func(ctx context.Context, req Request) Response {
		got = req
		return Success("Seeked abc by -5000ms")
	}))

	req := Request{Type: TypeMedia, Device: model.Ptr("abc"), Action: &media.Action{Kind: media.ActionSeek, Ms: model.Ptr(int64(-5000))}}
	resp, err := Send(context.Background(), path, req)

	require.NoError(t, err)
	assert.True(t, resp.OK)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "Seeked abc by -5000ms", *resp.Message)
	assert.Nil(t, resp.State)

	assert.Equal(t, TypeMedia, got.Type)
	assert.Equal(t, "abc", got.DeviceID())
	require.NotNil(t, got.Action)
	assert.Equal(t, media.ActionSeek, got.Action.Kind)
	assert.Equal(t, int64(-5000), *got.Action.Ms)
}

func TestRequest_WireFormat(t *testing.T) {
	req := Request{Type: TypeMedia, Device: model.Ptr("abc"), Action: &media.Action{Kind: media.ActionSeek, Ms: model.Ptr(int64(-5000))}}

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"media","device":"abc","action":{"action":"seek","ms":-5000}}`, string(body))

	var decoded Request
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ping"}`), &decoded))
	assert.Equal(t, TypePing, decoded.Type)
	assert.Nil(t, decoded.Device)
	assert.Nil(t, decoded.Message)
}

func TestResponse_AbsentFieldsAreNull(t *testing.T) {
	body, err := json.Marshal(Success("Ringing abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"message":"Ringing abc","state":null}`, string(body))
}

func TestServer_InvalidJSON(t *testing.T) {
	path := startServer(t, dispatcherFunc(func(ctx context.Context, req Request) Response {
		t.Error("dispatcher must not be reached")
		return Response{}
	}))

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("{not json"))
	require.NoError(t, err)
	require.NoError(t, conn.(*net.UnixConn).CloseWrite())

	data, err := io.ReadAll(conn)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Message)
	assert.Contains(t, *resp.Message, "invalid IPC request JSON")
}

func TestServer_ConcurrentConnections(t *testing.T) {
	release := make(chan struct{})
	path := startServer(t, dispatcherFunc(func(ctx context.Context, req Request) Response {
		if req.Type == TypeMount {
			<-release
		}
		return Success(string(req.Type))
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := Send(context.Background(), path, Request{Type: TypeMount})
		assert.NoError(t, err)
		assert.Equal(t, "mount", *resp.Message)
	}()

	// A slow request must not hold up others.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := Send(ctx, path, Request{Type: TypeGetState})
	require.NoError(t, err)
	assert.Equal(t, "get_state", *resp.Message)

	close(release)
	wg.Wait()
}

func TestListen_ReplacesStaleSocketWithOwnerOnlyMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyprconnect.sock")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	ln, err := Listen(path)
	require.NoError(t, err)
	defer ln.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSocket, info.Mode()&os.ModeSocket)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
