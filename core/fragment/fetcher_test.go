package fragment

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/header.html":
			assert.Equal(t, "text/html", r.Header.Get("Accept"))
			_, _ = w.Write([]byte("<nav>H</nav>"))
		case "/exact.html":
			_, _ = w.Write(bytes.Repeat([]byte("a"), maxFragmentSize))
		case "/huge.html":
			_, _ = w.Write(append(bytes.Repeat([]byte("a"), maxFragmentSize), []byte("</footer>")...))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())

	t.Run("OK", func(t *testing.T) {
		body, err := f.Fetch(context.Background(), srv.URL+"/header.html")
		require.NoError(t, err)
		assert.Equal(t, "<nav>H</nav>", string(body))
	})

	t.Run("AtLimit", func(t *testing.T) {
		body, err := f.Fetch(context.Background(), srv.URL+"/exact.html")
		require.NoError(t, err)
		assert.Len(t, body, maxFragmentSize)
	})

	t.Run("OverLimit", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/huge.html")
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.False(t, IsTransient(err))
	})

	t.Run("BadStatus", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing.html")
		assert.ErrorIs(t, err, ErrBadStatus)
		assert.True(t, IsTransient(err))
	})
}
