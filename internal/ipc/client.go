package ipc

import (
	"context"
	"encoding/json"
	"io"
	"net"

	"github.com/pkg/errors"
)

// Send performs one request/response exchange with the daemon at socketPath.
func Send(ctx context.Context, socketPath string, req Request) (Response, error) {
	var resp Response

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return resp, errors.Wrapf(err, "connect to %s", socketPath)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return resp, errors.Wrap(err, "encode request")
	}
	if _, err := conn.Write(body); err != nil {
		return resp, errors.Wrap(err, "write request")
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return resp, errors.Wrap(err, "half-close request")
		}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return resp, errors.Wrap(err, "read response")
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, errors.Wrap(err, "decode response")
	}
	return resp, nil
}
