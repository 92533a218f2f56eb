// Package mount drives the sshfs mount exposed by kdeconnect to a known state.
package mount

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/model"
	"github.com/roomtin/hyprconnect/internal/runner"
)

const (
	// StorageSubpath is the phone's internal storage below the mount root.
	StorageSubpath = "storage/emulated/0"
	// Opener hands a path to the desktop file manager.
	Opener = "xdg-open"

	DefaultPollInterval = 100 * time.Millisecond
	DefaultDeadline     = 1400 * time.Millisecond
)

// State is the observed mount state of a device. It is derived on every
// check and never stored.
type State int

const (
	Unmounted State = iota
	Mounting
	Mounted
	Unmounting
)

func (s State) String() string {
	switch s {
	case Mounting:
		return "mounting"
	case Mounted:
		return "mounted"
	case Unmounting:
		return "unmounting"
	default:
		return "unmounted"
	}
}

// DeviceLink is the part of the kdeconnect client needed to mount.
type DeviceLink interface {
	Mount(ctx context.Context, id string) error
	MountPoint(ctx context.Context, id string) (string, error)
}

// MountTable answers whether a path is a live mount target.
type MountTable interface {
	IsMounted(target string) bool
}

// Refresher forces a poll cycle.
type Refresher interface {
	RefreshNow(ctx context.Context) model.DaemonState
}

// ResolveFunc picks the target device for an optional explicit id.
type ResolveFunc func(explicit string) (string, error)

// Options bounds the convergence polls.
type Options struct {
	PollInterval time.Duration
	Deadline     time.Duration
}

// Controller runs mount, open and toggle operations.
type Controller struct {
	link      DeviceLink
	mounts    MountTable
	runner    runner.Runner
	refresher Refresher
	resolve   ResolveFunc
	opts      Options
}

// NewController creates a Controller. Zero options fall back to the defaults.
func NewController(link DeviceLink, mounts MountTable, r runner.Runner, refresher Refresher, resolve ResolveFunc, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	return &Controller{
		link:      link,
		mounts:    mounts,
		runner:    r,
		refresher: refresher,
		resolve:   resolve,
		opts:      opts,
	}
}

// Observe combines the reported mount point with the mount table. A device
// is Mounted only when a non-empty mount point is reported and live.
func (c *Controller) Observe(ctx context.Context, id string) (State, string) {
	mp, err := c.link.MountPoint(ctx, id)
	if err != nil || mp == "" {
		return Unmounted, ""
	}
	if c.mounts.IsMounted(mp) {
		return Mounted, mp
	}
	return Unmounted, mp
}

// Mount asks kdeconnect to mount id and waits for the mount to go live.
// It returns the mount root.
func (c *Controller) Mount(ctx context.Context, id string) (string, error) {
	if err := c.link.Mount(ctx, id); err != nil {
		return "", err
	}
	log.Debug().Str("device", id).Stringer("state", Mounting).Msg("mount requested")

	mp, err := c.waitFor(ctx, id, Mounted)
	if err != nil {
		return "", err
	}
	log.Info().Str("device", id).Str("mount_point", mp).Msg("device mounted")
	return mp, nil
}

// OpenMount mounts id and opens its internal storage in the file manager.
// The opener is not waited for.
func (c *Controller) OpenMount(ctx context.Context, id string) (string, error) {
	mp, err := c.Mount(ctx, id)
	if err != nil {
		return "", err
	}

	target := filepath.Join(mp, StorageSubpath)
	if _, err := os.Stat(target); err != nil {
		return "", apperr.Invalid("internal storage path not found: %s", target)
	}
	if err := c.runner.Start(Opener, target); err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, err, "failed to spawn "+Opener)
	}
	return target, nil
}

// ToggleMount unmounts the resolved device when it is mounted and mounts
// and opens it otherwise. A poll cycle is forced once the change lands.
func (c *Controller) ToggleMount(ctx context.Context, explicit string) (string, error) {
	id, err := c.resolve(explicit)
	if err != nil {
		return "", err
	}

	state, mp := c.Observe(ctx, id)
	if state == Mounted {
		log.Debug().Str("device", id).Stringer("state", Unmounting).Msg("unmount requested")
		if err := c.unmount(ctx, mp); err != nil {
			return "", err
		}
		if _, err := c.waitFor(ctx, id, Unmounted); err != nil {
			return "", err
		}
		c.refresher.RefreshNow(ctx)
		return fmt.Sprintf("Unmounted %s from %s", id, mp), nil
	}

	target, err := c.OpenMount(ctx, id)
	if err != nil {
		return "", err
	}
	c.refresher.RefreshNow(ctx)
	return fmt.Sprintf("Mounted and opened %s: %s", id, target), nil
}

// unmount tries fusermount first and umount only if that fails.
func (c *Controller) unmount(ctx context.Context, path string) error {
	res, err := c.runner.Run(ctx, "fusermount", "-u", path)
	if err == nil && res.OK() {
		return nil
	}
	log.Debug().Err(err).Int("exit_code", res.ExitCode).Str("path", path).Msg("fusermount failed; trying umount")

	res, err = c.runner.Run(ctx, "umount", path)
	if err == nil && res.OK() {
		return nil
	}
	return apperr.Upstream(fmt.Sprintf("failed to unmount %s with fusermount/umount", path))
}

// waitFor polls until the device reaches want or the deadline passes.
func (c *Controller) waitFor(ctx context.Context, id string, want State) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Deadline)
	defer cancel()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		state, mp := c.Observe(ctx, id)
		// A read cut short by the deadline says nothing about the mount.
		if state == want && ctx.Err() == nil {
			return mp, nil
		}
		select {
		case <-ctx.Done():
			return "", apperr.Timeout("timed out waiting for device %s to become %s", id, want)
		case <-ticker.C:
		}
	}
}
