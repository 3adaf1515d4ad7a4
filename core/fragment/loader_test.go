package fragment_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rebelinux-site/core/document"
	"rebelinux-site/core/fragment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shell = `<!DOCTYPE html><html><head></head><body>` +
	`<div id="header-container"></div><main>page</main><div id="footer-container"></div>` +
	`</body></html>`

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, d := range s.delays {
		sum += d
	}
	return sum
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

func newDoc(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.ParseString(shell)
	require.NoError(t, err)
	return doc
}

func testPolicy() fragment.Policy {
	return fragment.Policy{MaxAttempts: 3, Delay: time.Second, Timeout: 5 * time.Second}
}

// scripted returns a fetcher answering from per-URL queues; the last answer repeats.
type scripted struct {
	mu      sync.Mutex
	answers map[string][]error
	bodies  map[string]string
	calls   map[string]int
}

func newScripted() *scripted {
	return &scripted{
		answers: make(map[string][]error),
		bodies:  make(map[string]string),
		calls:   make(map[string]int),
	}
}

func (s *scripted) on(url, body string, errs ...error) {
	s.bodies[url] = body
	s.answers[url] = errs
}

func (s *scripted) Fetch(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls[url]
	s.calls[url]++
	queue := s.answers[url]
	if n < len(queue) && queue[n] != nil {
		return nil, queue[n]
	}
	return []byte(s.bodies[url]), nil
}

func (s *scripted) count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func TestLoadAll_RetriesUntilSuccess(t *testing.T) {
	var headerHits, footerHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/components/header.html":
			if headerHits.Add(1) <= 2 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<nav>H</nav>")
		case "/components/footer.html":
			footerHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<footer>F</footer>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	descriptors, err := fragment.DefaultDescriptors(srv.URL + "/components/")
	require.NoError(t, err)

	doc := newDoc(t)
	rec := &sleepRecorder{}
	var setupRuns atomic.Int32

	l := fragment.New(doc, descriptors, fragment.Options{
		Fetcher: fragment.NewHTTPFetcher(srv.Client()),
		Policy:  testPolicy(),
		Sleep:   rec.sleep,
		Setup: fragment.InitializerFunc(func(ctx context.Context) error {
			setupRuns.Add(1)
			return nil
		}),
	})

	report, err := l.LoadAll(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Started)
	assert.Equal(t, []string{fragment.FooterContainer, fragment.HeaderContainer}, report.Mounted)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 3, report.Attempts[fragment.HeaderContainer])
	assert.Equal(t, 1, report.Attempts[fragment.FooterContainer])

	assert.Equal(t, int32(3), headerHits.Load())
	assert.Equal(t, int32(1), footerHits.Load())
	assert.GreaterOrEqual(t, rec.total(), 2*time.Second)
	assert.Equal(t, int32(1), setupRuns.Load())

	inner, err := doc.InnerHTML(fragment.HeaderContainer)
	require.NoError(t, err)
	assert.Equal(t, "<nav>H</nav>", inner)
	assert.NotContains(t, doc.String(), "component-error")

	state := l.State()
	assert.True(t, state.Loaded)
	assert.False(t, state.Loading)
	assert.False(t, state.Error)
}

func TestLoadAll_AllFragmentsExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	descriptors, err := fragment.DefaultDescriptors(srv.URL + "/")
	require.NoError(t, err)

	doc := newDoc(t)
	rec := &sleepRecorder{}
	setupRan := false

	l := fragment.New(doc, descriptors, fragment.Options{
		Fetcher:  fragment.NewHTTPFetcher(srv.Client()),
		Policy:   testPolicy(),
		Sleep:    rec.sleep,
		RetryURL: "/?retry=1",
		Setup: fragment.InitializerFunc(func(ctx context.Context) error {
			setupRan = true
			return nil
		}),
	})

	report, err := l.LoadAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fragment.ErrCycleFailed)
	assert.ErrorIs(t, err, fragment.ErrRetriesExhausted)
	assert.ErrorIs(t, err, fragment.ErrBadStatus)

	assert.Equal(t, []string{fragment.FooterContainer, fragment.HeaderContainer}, report.Failed)
	assert.Equal(t, int32(6), hits.Load())
	assert.Equal(t, 4, rec.count())
	for _, d := range rec.delays {
		assert.Equal(t, time.Second, d)
	}
	assert.False(t, setupRan)

	state := l.State()
	assert.False(t, state.Loaded)
	assert.False(t, state.Loading)
	assert.True(t, state.Error)

	assert.True(t, doc.HasContainer(fragment.PanelID))
	out := doc.String()
	assert.Contains(t, out, "component-error-dismiss")
	assert.Contains(t, out, `href="/?retry=1"`)

	inner, err := doc.InnerHTML(fragment.HeaderContainer)
	require.NoError(t, err)
	assert.Contains(t, inner, `class="component-error"`)
}

func TestLoadAll_NoOpOnceLoaded(t *testing.T) {
	f := newScripted()
	f.on("h", "<nav>H</nav>")
	f.on("f", "<footer>F</footer>")
	descriptors := []fragment.Descriptor{
		{ContainerID: fragment.HeaderContainer, URL: "h"},
		{ContainerID: fragment.FooterContainer, URL: "f"},
	}

	l := fragment.New(newDoc(t), descriptors, fragment.Options{Fetcher: f, Policy: testPolicy()})

	_, err := l.LoadAll(context.Background())
	require.NoError(t, err)

	report, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Started)
	assert.Equal(t, 1, f.count("h"))
	assert.Equal(t, 1, f.count("f"))
}

func TestLoadAll_NoOpWhileLoading(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var once sync.Once

	fetcher := fragment.FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		once.Do(func() { close(entered) })
		<-release
		return nil, errors.New("offline")
	})

	descriptors := []fragment.Descriptor{{ContainerID: fragment.HeaderContainer, URL: "h"}}
	l := fragment.New(newDoc(t), descriptors, fragment.Options{
		Fetcher: fetcher,
		Policy:  fragment.Policy{MaxAttempts: 1, Timeout: time.Minute},
	})

	done := make(chan error, 1)
	go func() {
		_, err := l.LoadAll(context.Background())
		done <- err
	}()
	<-entered

	assert.True(t, l.State().Loading)

	report, err := l.LoadAll(context.Background())
	assert.NoError(t, err)
	assert.False(t, report.Started)

	report, err = l.ConnectivityRestored(context.Background())
	assert.NoError(t, err)
	assert.False(t, report.Started)

	close(release)
	assert.ErrorIs(t, <-done, fragment.ErrCycleFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoadOne_SucceedsOnAttemptK(t *testing.T) {
	offline := errors.New("offline")
	tests := []struct {
		name string
		errs []error
		want int
	}{
		{"FirstAttempt", nil, 1},
		{"SecondAttempt", []error{offline}, 2},
		{"ThirdAttempt", []error{offline, &fragment.StatusError{URL: "h", Code: 503}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScripted()
			f.on("h", "<nav>H</nav>", tt.errs...)
			rec := &sleepRecorder{}
			doc := newDoc(t)

			l := fragment.New(doc, nil, fragment.Options{Fetcher: f, Policy: testPolicy(), Sleep: rec.sleep})

			err := l.LoadOne(context.Background(), fragment.Descriptor{ContainerID: fragment.HeaderContainer, URL: "h"})
			require.NoError(t, err)

			assert.Equal(t, tt.want, f.count("h"))
			assert.Equal(t, tt.want-1, rec.count())

			inner, err := doc.InnerHTML(fragment.HeaderContainer)
			require.NoError(t, err)
			assert.Equal(t, "<nav>H</nav>", inner)
		})
	}
}

func TestLoadOne_MissingContainer(t *testing.T) {
	f := newScripted()
	f.on("s", "<aside></aside>")
	l := fragment.New(newDoc(t), nil, fragment.Options{Fetcher: f, Policy: testPolicy()})

	var failed []fragment.Event
	l.Subscribe(func(ev fragment.Event) { failed = append(failed, ev) })

	err := l.LoadOne(context.Background(), fragment.Descriptor{ContainerID: "sidebar-container", URL: "s"})
	assert.ErrorIs(t, err, fragment.ErrMissingContainer)
	assert.Equal(t, 0, f.count("s"))
	require.Len(t, failed, 1)
	assert.Equal(t, fragment.EventComponentFailed, failed[0].Type)
}

func TestLoadOne_AttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	fetcher := fragment.FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	doc := newDoc(t)
	l := fragment.New(doc, nil, fragment.Options{
		Fetcher: fetcher,
		Policy:  fragment.Policy{MaxAttempts: 2, Delay: time.Millisecond, Timeout: 20 * time.Millisecond},
	})

	err := l.LoadOne(context.Background(), fragment.Descriptor{ContainerID: fragment.HeaderContainer, URL: "h"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, fragment.ErrRetriesExhausted)
	assert.Contains(t, err.Error(), "timed out")
	assert.Equal(t, int32(2), calls.Load())

	inner, err := doc.InnerHTML(fragment.HeaderContainer)
	require.NoError(t, err)
	assert.Contains(t, inner, "component-retry")
}

func TestLoadOne_RealDelay(t *testing.T) {
	f := newScripted()
	offline := errors.New("offline")
	f.on("h", "<nav>H</nav>", offline, offline)

	l := fragment.New(newDoc(t), nil, fragment.Options{
		Fetcher: f,
		Policy:  fragment.Policy{MaxAttempts: 3, Delay: 20 * time.Millisecond, Timeout: time.Second},
	})

	start := time.Now()
	err := l.LoadOne(context.Background(), fragment.Descriptor{ContainerID: fragment.HeaderContainer, URL: "h"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestConnectivityRestored(t *testing.T) {
	offline := errors.New("offline")
	f := newScripted()
	f.on("h", "<nav>H</nav>", offline, offline, offline)
	f.on("f", "<footer>F</footer>")
	descriptors := []fragment.Descriptor{
		{ContainerID: fragment.HeaderContainer, URL: "h"},
		{ContainerID: fragment.FooterContainer, URL: "f"},
	}

	doc := newDoc(t)
	setupRuns := 0
	l := fragment.New(doc, descriptors, fragment.Options{
		Fetcher: f,
		Policy:  testPolicy(),
		Sleep:   (&sleepRecorder{}).sleep,
		Setup: fragment.InitializerFunc(func(ctx context.Context) error {
			setupRuns++
			return nil
		}),
	})

	t.Run("IgnoredBeforeFailure", func(t *testing.T) {
		report, err := l.ConnectivityRestored(context.Background())
		assert.NoError(t, err)
		assert.False(t, report.Started)
		assert.Equal(t, 0, f.count("h"))
	})

	_, err := l.LoadAll(context.Background())
	require.ErrorIs(t, err, fragment.ErrCycleFailed)
	require.True(t, l.State().Error)
	require.True(t, doc.HasContainer(fragment.PanelID))

	t.Run("ReloadsAfterFailure", func(t *testing.T) {
		report, err := l.ConnectivityRestored(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Started)
		assert.Equal(t, 4, f.count("h"))

		state := l.State()
		assert.True(t, state.Loaded)
		assert.False(t, state.Error)
		assert.False(t, doc.HasContainer(fragment.PanelID))
		assert.Equal(t, 1, setupRuns)
	})

	t.Run("IgnoredAfterSuccess", func(t *testing.T) {
		report, err := l.ConnectivityRestored(context.Background())
		assert.NoError(t, err)
		assert.False(t, report.Started)
	})
}

func TestLoadAll_NoContainersPresent(t *testing.T) {
	doc, err := document.ParseString(`<html><body><main>bare</main></body></html>`)
	require.NoError(t, err)

	f := newScripted()
	ran := false
	descriptors, err := fragment.DefaultDescriptors("http://example.test/")
	require.NoError(t, err)

	l := fragment.New(doc, descriptors, fragment.Options{
		Fetcher: f,
		Setup: fragment.InitializerFunc(func(ctx context.Context) error {
			ran = true
			return nil
		}),
	})

	report, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Started)
	assert.Empty(t, report.Mounted)
	assert.True(t, ran)
	assert.True(t, l.State().Loaded)
}

func TestSubscribe(t *testing.T) {
	f := newScripted()
	f.on("h", "<nav>H</nav>")
	f.on("f", "<footer>F</footer>")
	descriptors := []fragment.Descriptor{
		{ContainerID: fragment.HeaderContainer, URL: "h"},
		{ContainerID: fragment.FooterContainer, URL: "f"},
	}

	l := fragment.New(newDoc(t), descriptors, fragment.Options{Fetcher: f})

	var mu sync.Mutex
	var seen []fragment.EventType
	unsubscribe := l.Subscribe(func(ev fragment.Event) {
		mu.Lock()
		seen = append(seen, ev.Type)
		mu.Unlock()
	})

	var late int
	unsubscribeLate := l.Subscribe(func(ev fragment.Event) { late++ })
	unsubscribeLate()
	unsubscribeLate()

	_, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	unsubscribe()

	assert.ElementsMatch(t, []fragment.EventType{
		fragment.EventComponentLoaded,
		fragment.EventComponentLoaded,
		fragment.EventInitialized,
	}, seen)
	assert.Equal(t, fragment.EventInitialized, seen[len(seen)-1])
	assert.Equal(t, 0, late)
}

func TestLoadAll_SetupFallback(t *testing.T) {
	t.Run("ProviderUsed", func(t *testing.T) {
		f := newScripted()
		f.on("h", "<nav>H</nav>")
		provided := 0
		ran := 0

		l := fragment.New(newDoc(t), []fragment.Descriptor{{ContainerID: fragment.HeaderContainer, URL: "h"}}, fragment.Options{
			Fetcher: f,
			Fallback: func(ctx context.Context) (fragment.Initializer, error) {
				provided++
				return fragment.InitializerFunc(func(ctx context.Context) error {
					ran++
					return nil
				}), nil
			},
		})

		_, err := l.LoadAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, provided)
		assert.Equal(t, 1, ran)
	})

	t.Run("GivesUpSilently", func(t *testing.T) {
		f := newScripted()
		f.on("h", "<nav>H</nav>")

		l := fragment.New(newDoc(t), []fragment.Descriptor{{ContainerID: fragment.HeaderContainer, URL: "h"}}, fragment.Options{
			Fetcher: f,
			Fallback: func(ctx context.Context) (fragment.Initializer, error) {
				return nil, errors.New("shared module unavailable")
			},
		})

		report, err := l.LoadAll(context.Background())
		require.NoError(t, err)
		assert.NoError(t, report.SetupErr)
		assert.True(t, l.State().Loaded)
	})
}

func TestLoadOne_ZeroPolicyUsesDefaults(t *testing.T) {
	offline := errors.New("connection refused")
	f := newScripted()
	f.on("h", "", offline, offline, offline)

	t.Run("DefaultDelay", func(t *testing.T) {
		rec := &sleepRecorder{}
		failing := newScripted()
		failing.on("h", "", offline, offline, offline)
		l := fragment.New(newDoc(t), nil, fragment.Options{Fetcher: failing, Sleep: rec.sleep})

		err := l.LoadOne(context.Background(), fragment.Descriptor{ContainerID: fragment.HeaderContainer, URL: "h"})
		assert.ErrorIs(t, err, fragment.ErrRetriesExhausted)
		assert.Equal(t, fragment.DefaultMaxAttempts, failing.count("h"))
		assert.Equal(t, []time.Duration{fragment.DefaultRetryDelay, fragment.DefaultRetryDelay}, rec.delays)
	})

	t.Run("NoDelay", func(t *testing.T) {
		rec := &sleepRecorder{}
		l := fragment.New(newDoc(t), nil, fragment.Options{
			Fetcher: f,
			Policy:  fragment.Policy{Delay: fragment.NoDelay},
			Sleep:   rec.sleep,
		})

		err := l.LoadOne(context.Background(), fragment.Descriptor{ContainerID: fragment.HeaderContainer, URL: "h"})
		assert.ErrorIs(t, err, fragment.ErrRetriesExhausted)
		assert.Equal(t, 3, f.count("h"))
		assert.Equal(t, []time.Duration{0, 0}, rec.delays)
	})
}
