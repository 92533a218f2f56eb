// Package kdeconnect drives the kdeconnect-cli device-link tool.
package kdeconnect

import (
	"context"
	"strings"

	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/parse"
	"github.com/roomtin/hyprconnect/internal/runner"
)

// Binary is the device-link CLI executable name.
const Binary = "kdeconnect-cli"

// Client wraps kdeconnect-cli invocations.
type Client struct {
	runner runner.Runner
}

// NewClient creates a Client executing through r.
func NewClient(r runner.Runner) *Client {
	return &Client{runner: r}
}

// Available reports whether kdeconnect-cli is installed.
func (c *Client) Available() bool {
	return c.runner.Available(Binary)
}

// run executes kdeconnect-cli and returns stdout on exit 0. Any other exit
// becomes an upstream error carrying stderr verbatim.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	res, err := c.runner.Run(ctx, Binary, args...)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = "kdeconnect-cli failed"
		}
		return "", apperr.Upstream(msg)
	}
	return res.Stdout, nil
}

// ListPaired returns id/name pairs of paired devices.
func (c *Client) ListPaired(ctx context.Context) ([]parse.DeviceEntry, error) {
	out, err := c.run(ctx, "--list-devices", "--id-name-only")
	if err != nil {
		return nil, err
	}
	return parse.DeviceLines(out), nil
}

// ListReachable returns ids of currently reachable devices.
func (c *Client) ListReachable(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "--list-available", "--id-only")
	if err != nil {
		return nil, err
	}
	return parse.IDLines(out), nil
}

// MountPoint returns the tool's self-reported mount point, or "" when none.
func (c *Client) MountPoint(ctx context.Context, id string) (string, error) {
	out, err := c.run(ctx, "--device", id, "--get-mount-point")
	if err != nil {
		return "", err
	}
	return parse.FirstLine(out), nil
}

// Mount asks the device to expose its filesystem.
func (c *Client) Mount(ctx context.Context, id string) error {
	_, err := c.run(ctx, "--device", id, "--mount")
	return err
}

func (c *Client) Pair(ctx context.Context, id string) error {
	_, err := c.run(ctx, "--device", id, "--pair")
	return err
}

func (c *Client) Unpair(ctx context.Context, id string) error {
	_, err := c.run(ctx, "--device", id, "--unpair")
	return err
}

func (c *Client) Ring(ctx context.Context, id string) error {
	_, err := c.run(ctx, "--device", id, "--ring")
	return err
}

// Share sends a file path or URL to the device.
func (c *Client) Share(ctx context.Context, id, value string) error {
	_, err := c.run(ctx, "--device", id, "--share", value)
	return err
}

func (c *Client) Ping(ctx context.Context, id, message string) error {
	_, err := c.run(ctx, "--device", id, "--ping-msg", message)
	return err
}

// Refresh triggers a network discovery round.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.run(ctx, "--refresh")
	return err
}
