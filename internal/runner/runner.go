// Package runner executes one-shot external commands.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/roomtin/hyprconnect/internal/apperr"
)

// Result is the captured outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command exited with status 0.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Runner runs external programs. Run waits for completion, Start does not.
// A nonzero exit status is reported through Result, not as an error.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	Start(name string, args ...string) error
	Available(name string) bool
}

// Exec is the os/exec backed Runner. PATH lookups are cached briefly so a
// poll cycle does not stat every binary on every call.
type Exec struct {
	lookups *cache.Cache
}

// NewExec creates an Exec runner whose PATH lookups expire after ttl.
func NewExec(ttl time.Duration) *Exec {
	return &Exec{lookups: cache.New(ttl, 2*ttl)}
}

// Available reports whether name resolves in PATH.
func (e *Exec) Available(name string) bool {
	if v, found := e.lookups.Get(name); found {
		return v.(bool)
	}
	_, err := exec.LookPath(name)
	ok := err == nil
	e.lookups.Set(name, ok, cache.DefaultExpiration)
	return ok
}

// Run executes name and waits for it to exit.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if !e.Available(name) {
		return Result{}, apperr.Unavailable("%s not found in PATH", name)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, apperr.Wrap(apperr.KindUnavailable, err, "failed to run "+name)
	}
	return res, nil
}

// Start launches name detached from the caller and reaps it in the background.
func (e *Exec) Start(name string, args ...string) error {
	if !e.Available(name) {
		return apperr.Unavailable("%s not found in PATH", name)
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, err, "failed to start "+name)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Str("cmd", name).Msg("detached command exited with error")
		}
	}()
	return nil
}
