package fragment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Document is the page the loader mounts fragments into.
type Document interface {
	HasContainer(id string) bool
	SetInnerHTML(id, markup string) error
	AppendToBody(markup string) error
	Remove(id string) bool
}

// Options wires a Loader's collaborators.
type Options struct {
	// Fetcher retrieves fragment bodies. Defaults to an HTTPFetcher.
	Fetcher Fetcher
	// Policy is the retry policy. Zero fields fall back to DefaultPolicy values.
	Policy Policy
	// Setup runs after every fragment of a cycle mounted.
	Setup Initializer
	// Fallback is asked once for an Initializer when Setup is nil.
	Fallback SetupProvider
	// State lets the host own the cycle flags. Defaults to a fresh State.
	State *State
	// RetryURL is the manual retry target rendered in error blocks.
	RetryURL string
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Sleep waits between attempts. Defaults to a ctx-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Report summarizes one cycle.
type Report struct {
	// Started is false when the call was a no-op.
	Started bool
	// Mounted lists containers whose fragment loaded, sorted.
	Mounted []string
	// Failed lists containers whose fragment failed permanently, sorted.
	Failed []string
	// Attempts counts requests issued per container.
	Attempts map[string]int
	// SetupErr holds errors returned by the setup sequence.
	SetupErr error
}

// Loader loads fragments into a Document.
type Loader struct {
	doc         Document
	descriptors []Descriptor
	fetcher     Fetcher
	policy      Policy
	state       *State
	retryURL    string
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	events      observers

	setupMu       sync.Mutex
	setup         Initializer
	fallback      SetupProvider
	fallbackTried bool
}

// New creates a Loader for the given document and fragments.
func New(doc Document, descriptors []Descriptor, opts Options) *Loader {
	l := &Loader{
		doc:         doc,
		descriptors: append([]Descriptor(nil), descriptors...),
		fetcher:     opts.Fetcher,
		policy:      opts.Policy.withDefaults(),
		state:       opts.State,
		retryURL:    opts.RetryURL,
		logger:      opts.Logger,
		sleep:       opts.Sleep,
		setup:       opts.Setup,
		fallback:    opts.Fallback,
	}
	if l.fetcher == nil {
		l.fetcher = NewHTTPFetcher(nil)
	}
	if l.state == nil {
		l.state = NewState()
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.sleep == nil {
		l.sleep = sleep
	}
	return l
}

// State returns a snapshot of the cycle flags.
func (l *Loader) State() Snapshot {
	return l.state.Snapshot()
}

// Subscribe registers fn for loader events and returns its unsubscribe func.
func (l *Loader) Subscribe(fn Listener) func() {
	return l.events.subscribe(fn)
}

// LoadAll runs a load cycle unless one is in flight or a previous one succeeded.
// The returned error wraps ErrCycleFailed when any fragment failed permanently.
func (l *Loader) LoadAll(ctx context.Context) (Report, error) {
	if !l.state.begin() {
		l.logger.Debug("Load cycle skipped", zap.Any("state", l.state.Snapshot()))
		return Report{}, nil
	}
	return l.cycle(ctx)
}

// ConnectivityRestored starts a new cycle if the previous one failed and none is running.
func (l *Loader) ConnectivityRestored(ctx context.Context) (Report, error) {
	if !l.state.beginRetry() {
		return Report{}, nil
	}
	l.logger.Info("Connectivity restored, reloading components")
	return l.cycle(ctx)
}

// LoadOne loads a single fragment with retries. It does not touch the cycle state.
func (l *Loader) LoadOne(ctx context.Context, d Descriptor) error {
	_, err := l.load(ctx, d)
	return err
}

func (l *Loader) cycle(ctx context.Context) (Report, error) {
	start := time.Now()

	var present []Descriptor
	for _, d := range l.descriptors {
		if l.doc.HasContainer(d.ContainerID) {
			present = append(present, d)
		}
	}

	report := Report{
		Started:  true,
		Attempts: make(map[string]int, len(present)),
	}

	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)

	for _, d := range present {
		g.Go(func() error {
			attempts, err := l.load(ctx, d)

			mu.Lock()
			defer mu.Unlock()
			report.Attempts[d.ContainerID] = attempts
			if err != nil {
				report.Failed = append(report.Failed, d.ContainerID)
				errs = multierr.Append(errs, err)
				return nil
			}
			report.Mounted = append(report.Mounted, d.ContainerID)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Mounted)
	sort.Strings(report.Failed)

	if errs != nil {
		l.state.fail()
		l.showPanel(ctx, report.Failed)
		l.logger.Error("Component load cycle failed",
			zap.Strings("failed", report.Failed),
			zap.Duration("duration", time.Since(start)),
			zap.Error(errs))
		l.events.emit(Event{Type: EventCycleFailed, Err: errs})
		return report, fmt.Errorf("%w: %w", ErrCycleFailed, errs)
	}

	l.state.succeed()
	l.doc.Remove(PanelID)
	report.SetupErr = l.initialize(ctx)

	l.logger.Info("Components loaded",
		zap.Strings("mounted", report.Mounted),
		zap.Duration("duration", time.Since(start)))
	l.events.emit(Event{Type: EventInitialized})
	return report, nil
}

// load fetches d with retries and returns the number of requests issued.
func (l *Loader) load(ctx context.Context, d Descriptor) (int, error) {
	if !l.doc.HasContainer(d.ContainerID) {
		err := fmt.Errorf("%w: %s", ErrMissingContainer, d.ContainerID)
		l.logger.Error("Component container missing", zap.String("container", d.ContainerID))
		l.events.emit(Event{Type: EventComponentFailed, ContainerID: d.ContainerID, URL: d.URL, Err: err})
		return 0, err
	}

	var lastErr error
	issued := 0
	for n := 1; n <= l.policy.MaxAttempts; n++ {
		attempt := l.policy.attempt(n)
		issued++

		body, err := l.fetch(ctx, d.URL, attempt)
		if err == nil {
			if err := l.doc.SetInnerHTML(d.ContainerID, string(body)); err != nil {
				lastErr = err
				break
			}
			l.logger.Debug("Component loaded",
				zap.String("container", d.ContainerID),
				zap.Int("attempt", n))
			l.events.emit(Event{Type: EventComponentLoaded, ContainerID: d.ContainerID, URL: d.URL, Attempt: n})
			return issued, nil
		}

		lastErr = err
		l.logger.Warn("Component fetch failed",
			zap.String("container", d.ContainerID),
			zap.String("url", d.URL),
			zap.Int("attempt", n),
			zap.Int("max_attempts", attempt.MaxAttempts),
			zap.Error(err))

		if attempt.Last() || !IsTransient(err) || ctx.Err() != nil {
			break
		}
		if err := l.sleep(ctx, attempt.Delay); err != nil {
			lastErr = err
			break
		}
	}

	err := fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, d.ContainerID, issued, lastErr)
	l.showBlock(ctx, d)
	l.events.emit(Event{Type: EventComponentFailed, ContainerID: d.ContainerID, URL: d.URL, Attempt: issued, Err: err})
	return issued, err
}

func (l *Loader) fetch(ctx context.Context, url string, attempt Attempt) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, attempt.Timeout)
	defer cancel()

	body, err := l.fetcher.Fetch(ctx, url)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("attempt %d timed out after %s: %w", attempt.Number, attempt.Timeout, err)
	}
	return body, err
}

func (l *Loader) showBlock(ctx context.Context, d Descriptor) {
	markup, err := renderString(ctx, ErrorBlock(d, l.retryURL))
	if err == nil {
		err = l.doc.SetInnerHTML(d.ContainerID, markup)
	}
	if err != nil {
		l.logger.Error("Failed to render component error block", zap.String("container", d.ContainerID), zap.Error(err))
	}
}

func (l *Loader) showPanel(ctx context.Context, failed []string) {
	l.doc.Remove(PanelID)
	markup, err := renderString(ctx, ErrorPanel(failed))
	if err == nil {
		err = l.doc.AppendToBody(markup)
	}
	if err != nil {
		l.logger.Error("Failed to render component error panel", zap.Error(err))
	}
}

// initialize runs the injected setup, asking the fallback provider once if none was wired.
func (l *Loader) initialize(ctx context.Context) error {
	setup := l.resolveSetup(ctx)
	if setup == nil {
		l.logger.Warn("Setup routines unavailable, skipping initialization", zap.Error(ErrNoInitializer))
		return nil
	}
	return setup.Initialize(ctx)
}

func (l *Loader) resolveSetup(ctx context.Context) Initializer {
	l.setupMu.Lock()
	defer l.setupMu.Unlock()

	if l.setup != nil || l.fallback == nil || l.fallbackTried {
		return l.setup
	}
	l.fallbackTried = true

	l.logger.Warn("Setup routines not wired, trying fallback")
	setup, err := l.fallback(ctx)
	if err != nil {
		l.logger.Warn("Setup fallback failed", zap.Error(err))
		return nil
	}
	l.setup = setup
	return setup
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
