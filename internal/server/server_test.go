package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ogstub/internal/posts"
	"ogstub/internal/preview"
)

func newTestServer(t *testing.T, fs afero.Fs, siteRoot string) (*httptest.Server, *Hub) {
	t.Helper()
	log := zap.NewNop().Sugar()
	hub := newHub(log)
	srv := httptest.NewServer(newMux(hub, siteRoot, fs, "out", log))
	t.Cleanup(srv.Close)
	return srv, hub
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func TestCardsGallery(t *testing.T) {
	fs := afero.NewMemMapFs()
	g, err := preview.New(fs, preview.Options{BaseURL: "https://example.com", Owner: "Jane Doe"})
	require.NoError(t, err)
	_, err = g.GenerateAll([]posts.Descriptor{{
		Slug: "hello-world", Title: "Hello & World", Excerpt: "A test", Image: "/og.png", ImageAlt: "alt",
	}}, "out")
	require.NoError(t, err)

	srv, _ := newTestServer(t, fs, t.TempDir())

	status, body := get(t, srv.URL+"/_cards")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<strong>Hello &amp; World</strong>")
	assert.Contains(t, body, `src="https://example.com/og.png"`)
	assert.Contains(t, body, "https://example.com/blog/hello-world")
	assert.Contains(t, body, `new WebSocket("ws://"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</html>"))
	assert.NotContains(t, body, `class="finding"`)
}

func TestCardsGalleryWithoutStubs(t *testing.T) {
	srv, _ := newTestServer(t, afero.NewMemMapFs(), t.TempDir())

	status, body := get(t, srv.URL+"/_cards")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "No stubs generated yet.")
}

func TestStubsAreServedUntouched(t *testing.T) {
	root := t.TempDir()
	stub := "<html><body><p>stub</p></body></html>"
	require.NoError(t, os.MkdirAll(filepath.Join(root, "blog", "hello-world"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "blog", "hello-world", "index.html"), []byte(stub), 0644))

	srv, _ := newTestServer(t, afero.NewMemMapFs(), root)

	status, body := get(t, srv.URL+"/blog/hello-world/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, stub, body)
}

func TestLiveReloadWrapperSkipsErrors(t *testing.T) {
	h := liveReloadWrapper(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<body>missing</body>"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_cards", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "<body>missing</body>", rec.Body.String())
}

func TestHubBroadcast(t *testing.T) {
	srv, hub := newTestServer(t, afero.NewMemMapFs(), t.TempDir())

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.count() == 1 }, time.Second, 10*time.Millisecond)

	hub.broadcast([]byte("reload"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))

	conn.Close()
	require.Eventually(t, func() bool { return hub.count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestAddWatchesSkipsMissingPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content", "blog"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "site.yaml"), []byte("x"), 0644))

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()

	err = addWatches(w, []string{
		filepath.Join(root, "content"),
		filepath.Join(root, "site.yaml"),
		filepath.Join(root, "missing"),
		"",
	}, zap.NewNop().Sugar())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "content"),
		filepath.Join(root, "content", "blog"),
	}, w.WatchList())
}
