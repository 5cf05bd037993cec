// Package command executes the operator-supplied power-state scripts and
// reports their outcome.
package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sifis-home/wp6-mobile-application-api/internal/configstore"
)

// Kind names one of the three device commands. The set is closed: request
// data never contributes to the script path.
type Kind string

const (
	FactoryReset Kind = "factory_reset"
	Restart      Kind = "restart"
	Shutdown     Kind = "shutdown"
)

// scriptFiles maps each command to its fixed script name under the
// configured scripts directory.
var scriptFiles = map[Kind]string{
	FactoryReset: "factory_reset.sh",
	Restart:      "restart.sh",
	Shutdown:     "shutdown.sh",
}

// ParseKind maps a route segment to a command kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := scriptFiles[k]
	return k, ok
}

// ErrBusy is returned when the same command is already in flight. The
// current instance must finish before a new one starts; a double factory
// reset is never acceptable.
var ErrBusy = errors.New("command already in progress")

// Dispatcher runs device commands through a ScriptRunner, one in-flight
// instance per kind. Different kinds may run in parallel.
type Dispatcher struct {
	scriptsDir string
	runner     ScriptRunner
	store      *configstore.Store
	logger     zerolog.Logger

	mu       sync.Mutex
	inFlight map[Kind]bool
}

// NewDispatcher wires the dispatcher to its scripts directory and to the
// config store it clears after a successful factory reset.
func NewDispatcher(scriptsDir string, runner ScriptRunner, store *configstore.Store, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		scriptsDir: scriptsDir,
		runner:     runner,
		store:      store,
		logger:     logger.With().Str("component", "dispatcher").Logger(),
		inFlight:   make(map[Kind]bool),
	}
}

// Dispatch runs the script for kind and returns its outcome. A non-zero
// exit status or a timeout is a reportable outcome, not an error; an error
// means the script could not be invoked, the command is already running, or
// the factory-reset cleanup failed.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind) (*Outcome, error) {
	script, ok := scriptFiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", kind)
	}

	d.mu.Lock()
	if d.inFlight[kind] {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	d.inFlight[kind] = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.inFlight, kind)
		d.mu.Unlock()
	}()

	path := filepath.Join(d.scriptsDir, script)
	d.logger.Info().Str("command", string(kind)).Str("script", path).Msg("running command script")

	out, err := d.runner.Run(ctx, path)
	if err != nil {
		d.logger.Error().Err(err).Str("command", string(kind)).Msg("script invocation failed")
		return nil, err
	}
	out.Command = kind
	d.logger.Info().
		Str("command", string(kind)).
		Int("exit_status", out.ExitStatus).
		Int64("duration_ms", out.DurationMs).
		Bool("timed_out", out.TimedOut).
		Msg("command finished")

	if kind == FactoryReset && out.ExitStatus == 0 && !out.TimedOut {
		if err := d.store.Delete(); err != nil {
			d.logger.Error().Err(err).Msg("factory reset could not remove device config")
			return nil, err
		}
	}
	return out, nil
}
