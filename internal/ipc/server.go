package ipc

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/metrics"
)

const (
	// ReadTimeout bounds how long a client may take to send its request.
	ReadTimeout = 30 * time.Second
	// MaxRequestBytes caps a request document.
	MaxRequestBytes = 1 << 20

	writeTimeout = 10 * time.Second
)

// Dispatcher serves a decoded request.
type Dispatcher interface {
	Handle(ctx context.Context, req Request) Response
}

// Listen binds a Unix socket at path, replacing any stale socket file, and
// restricts it to the owner.
func Listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrapf(err, "create socket dir for %s", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "remove stale socket %s", path)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to bind socket %s", path)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, errors.Wrapf(err, "chmod socket %s", path)
	}
	return ln, nil
}

// Server accepts connections and serves one request on each.
type Server struct {
	dispatcher Dispatcher
	metrics    metrics.Recorder
	wg         sync.WaitGroup
}

// NewServer creates a Server. rec may be nil.
func NewServer(d Dispatcher, rec metrics.Recorder) *Server {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Server{dispatcher: d, metrics: rec}
}

// Serve accepts on ln until ctx is cancelled, then closes ln and waits for
// in-flight connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("ipc server listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				log.Info().Msg("ipc server stopped")
				return nil
			}
			log.Warn().Err(err).Msg("ipc accept failed")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	logger := log.With().Str("request_id", uuid.NewString()).Logger()

	req, err := readRequest(conn)
	var resp Response
	if err != nil {
		logger.Warn().Err(err).Msg("rejected ipc request")
		resp = Failure(err)
	} else {
		start := time.Now()
		resp = s.dispatcher.Handle(ctx, req)
		logger.Debug().
			Str("type", string(req.Type)).
			Bool("ok", resp.OK).
			Dur("elapsed", time.Since(start)).
			Msg("ipc request served")
	}
	reqType := string(req.Type)
	if reqType == "" {
		reqType = "unknown"
	}
	s.metrics.IncIPCRequest(reqType, resp.OK)

	body, err := json.Marshal(resp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode ipc response")
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(body); err != nil {
		logger.Debug().Err(err).Msg("client went away before the response was written")
	}
}

func readRequest(conn net.Conn) (Request, error) {
	var req Request
	_ = conn.SetReadDeadline(time.Now().Add(ReadTimeout))

	body, err := io.ReadAll(io.LimitReader(conn, MaxRequestBytes+1))
	if err != nil {
		return req, apperr.Wrap(apperr.KindInvalid, err, "failed to read IPC request")
	}
	if len(body) > MaxRequestBytes {
		return req, apperr.Invalid("IPC request exceeds %d bytes", MaxRequestBytes)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, apperr.Wrap(apperr.KindInvalid, err, "invalid IPC request JSON")
	}
	return req, nil
}
