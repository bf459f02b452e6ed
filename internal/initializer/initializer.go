// Package initializer brings a store to a usable state on launch: it
// migrates legacy data, optionally clears the store, and populates an
// empty store with the bundled sample factories.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kittclouds/studiocore/internal/config"
	"github.com/kittclouds/studiocore/internal/factory"
	"github.com/kittclouds/studiocore/internal/store"
)

// State is a step of the initializer.
type State int

const (
	StateUninitialized State = iota
	StateMigrating
	StateCheckingEmptiness
	StateClearing
	StatePopulating
	StateAlreadyPopulated
	StateReady
	StateFailed
)

var stateNames = [...]string{
	StateUninitialized:     "uninitialized",
	StateMigrating:         "migrating",
	StateCheckingEmptiness: "checking_emptiness",
	StateClearing:          "clearing",
	StatePopulating:        "populating",
	StateAlreadyPopulated:  "already_populated",
	StateReady:             "ready",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ErrNotStarted is returned by Wait before Start.
var ErrNotStarted = errors.New("initializer not started")

// Failure names one factory that could not be written.
type Failure struct {
	ID    string
	Title string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("factory %s (%s): %v", f.ID, f.Title, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report is the outcome of one run.
type Report struct {
	Cleared         bool
	Migration       *MigrationReport
	Succeeded       []string
	Failures        []Failure
	EntitiesWritten int
	// Existing is the factory count found before populating.
	Existing int
}

// Populated reports whether this run wrote sample data.
func (r *Report) Populated() bool {
	return len(r.Succeeded) > 0
}

// Source yields the factories used to populate an empty store.
type Source func() ([]*factory.ProjectFactory, error)

// Option configures an Initializer.
type Option func(*Initializer)

// WithSource replaces the bundled samples.
func WithSource(src Source) Option {
	return func(i *Initializer) { i.source = src }
}

// WithLegacy migrates every factory of legacy into the store before the
// emptiness check.
func WithLegacy(legacy *store.Store) Option {
	return func(i *Initializer) { i.legacy = legacy }
}

// Initializer runs once per launch. It is safe to query State from any
// goroutine while it runs.
type Initializer struct {
	store  *store.Store
	legacy *store.Store
	flags  config.Flags
	source Source
	log    logrus.FieldLogger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	report *Report
	err    error
}

// New creates an initializer for s. Flags are read once, here.
func New(s *store.Store, flags config.Flags, log logrus.FieldLogger, opts ...Option) *Initializer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	i := &Initializer{
		store:  s,
		flags:  flags,
		source: factory.Samples,
		log:    log.WithField("component", "initializer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// State returns the current state.
func (i *Initializer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Initializer) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
	i.log.WithField("state", s.String()).Debug("state changed")
}

// Start runs the initializer on a background goroutine. Calling Start
// again while a run is in flight does nothing.
func (i *Initializer) Start(ctx context.Context) {
	i.mu.Lock()
	if i.done != nil {
		i.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	i.done = make(chan struct{})
	i.mu.Unlock()

	go func() {
		defer cancel()
		report, err := i.Run(ctx)

		i.mu.Lock()
		i.report, i.err = report, err
		close(i.done)
		i.mu.Unlock()
	}()
}

// Wait blocks until the run started by Start finishes.
func (i *Initializer) Wait() (*Report, error) {
	i.mu.Lock()
	done := i.done
	i.mu.Unlock()
	if done == nil {
		return nil, ErrNotStarted
	}
	<-done

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.report, i.err
}

// Cancel stops a run started by Start. The run stops between factories
// and between the writes of a factory; whatever was written stays.
func (i *Initializer) Cancel() {
	i.mu.Lock()
	cancel := i.cancel
	i.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run executes the whole sequence on the calling goroutine. A factory that
// fails to save is recorded in the report and does not stop the run; only
// an unreachable store or cancellation returns an error. Legacy data is
// not migrated when the store is cleared on launch.
func (i *Initializer) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	switch {
	case i.legacy == nil:
	case i.flags.ClearDatabaseOnLaunch:
		i.log.Info("skipping migration, store is cleared on launch")
	default:
		i.setState(StateMigrating)
		m, err := Migrate(ctx, i.legacy, i.store, i.log)
		report.Migration = m
		if err != nil {
			return report, i.fail(fmt.Errorf("migration: %w", err))
		}
	}

	if i.flags.ClearDatabaseOnLaunch {
		i.setState(StateClearing)
		if err := i.store.ClearAllData(ctx); err != nil {
			return report, i.fail(err)
		}
		report.Cleared = true
		i.log.Info("cleared database on launch")
	} else {
		i.setState(StateCheckingEmptiness)
		n, err := i.store.CountFactories(ctx)
		if err != nil {
			return report, i.fail(err)
		}
		report.Existing = n
		if n > 0 {
			i.setState(StateAlreadyPopulated)
			i.log.WithField("factories", n).Info("store already populated")
			i.setState(StateReady)
			return report, nil
		}
	}

	i.setState(StatePopulating)
	factories, err := i.source()
	if err != nil {
		return report, i.fail(fmt.Errorf("failed to load samples: %w", err))
	}
	for _, f := range factories {
		if err := ctx.Err(); err != nil {
			return report, i.fail(err)
		}
		log := i.log.WithFields(logrus.Fields{"factory": f.ProjectID(), "title": f.Project.Title})
		if err := i.store.SaveFactory(ctx, f); err != nil {
			if ctx.Err() != nil {
				return report, i.fail(ctx.Err())
			}
			log.WithError(err).Warn("failed to save factory")
			report.Failures = append(report.Failures, Failure{ID: f.ProjectID(), Title: f.Project.Title, Err: err})
			continue
		}
		report.Succeeded = append(report.Succeeded, f.ProjectID())
		report.EntitiesWritten += f.TotalEntities()
		log.Debug("saved factory")
	}

	i.log.WithFields(logrus.Fields{
		"succeeded": len(report.Succeeded),
		"failed":    len(report.Failures),
		"entities":  report.EntitiesWritten,
	}).Info("populated store")
	i.setState(StateReady)
	return report, nil
}

func (i *Initializer) fail(err error) error {
	i.setState(StateFailed)
	i.log.WithError(err).Error("initialization failed")
	return err
}
