package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ogstub/internal/inspect"
)

const debounceDuration = 500 * time.Millisecond

type Options struct {
	Port int
	// SiteRoot is served at "/".
	SiteRoot string
	// OutputDir holds the stubs shown in the card gallery.
	OutputDir string
	// Watch lists files and directories that trigger a rebuild.
	Watch []string
	Build func() error
	Log   *zap.SugaredLogger
}

// Run builds once, then serves the site until ctx is cancelled, rebuilding and
// reloading connected galleries whenever a watched path changes.
func Run(ctx context.Context, opts Options) error {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	log := opts.Log

	if err := opts.Build(); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	hub := newHub(log)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatches(watcher, opts.Watch, log); err != nil {
		return err
	}
	go watchForChanges(ctx, watcher, hub, opts.Build, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: newMux(hub, opts.SiteRoot, afero.NewOsFs(), opts.OutputDir, log),
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("Serving site on http://localhost%s (cards at /_cards)", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// addWatches registers every directory under the given paths. Files are
// watched through their parent directory so editors that save by renaming
// are still noticed.
func addWatches(watcher *fsnotify.Watcher, paths []string, log *zap.SugaredLogger) error {
	watched := make(map[string]bool)
	addWatch := func(dir string) {
		dir = filepath.Clean(dir)
		if watched[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			log.Warnf("Error adding watch on %s: %v", dir, err)
			return
		}
		log.Debugf("Watching directory: %s", dir)
		watched[dir] = true
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not stat path %s: %w", path, err)
		}

		if !info.IsDir() {
			addWatch(filepath.Dir(path))
			continue
		}
		if err := filepath.Walk(path, func(walkPath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				addWatch(walkPath)
			}
			return nil
		}); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
	}
	return nil
}

func watchForChanges(ctx context.Context, watcher *fsnotify.Watcher, hub *Hub, build func() error, log *zap.SugaredLogger) {
	var lastBuild time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastBuild) <= debounceDuration {
				continue
			}
			// Let the editor finish writing before reading the file back.
			time.Sleep(100 * time.Millisecond)

			log.Infof("Change detected in %s, regenerating", event.Name)
			if err := build(); err != nil {
				log.Errorf("Error regenerating stubs: %v", err)
			} else {
				hub.broadcast([]byte("reload"))
			}
			lastBuild = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}

func newMux(hub *Hub, siteRoot string, fs afero.Fs, outputDir string, log *zap.SugaredLogger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.serveWs)
	mux.Handle("/_cards", liveReloadWrapper(cardsHandler(fs, outputDir, log)))
	mux.Handle("/", noCache(http.FileServer(http.Dir(siteRoot))))
	return mux
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

var cardsTemplate = template.Must(template.New("cards").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Preview cards</title>
  <style>
    body { font-family: sans-serif; max-width: 760px; margin: 2em auto; color: #222; }
    .card { border: 1px solid #ccc; border-radius: 8px; overflow: hidden; margin-bottom: 2em; }
    .card img { width: 100%; display: block; background: #eee; }
    .card .meta { padding: 0.75em 1em; }
    .card .url { color: #777; font-size: 0.85em; }
    .finding { color: #a00; font-size: 0.9em; }
  </style>
</head>
<body>
  <h1>Preview cards</h1>
  {{- range .Findings }}
  <p class="finding">{{ .Path }}: {{ .Message }}</p>
  {{- end }}
  {{- range .Stubs }}
  <div class="card">
    <img src="{{ .Card.Image }}" alt="{{ .Card.ImageAlt }}">
    <div class="meta">
      <div class="url">{{ .Card.URL }}</div>
      <strong>{{ .Card.OGTitle }}</strong>
      <p>{{ .Card.OGDesc }}</p>
    </div>
  </div>
  {{- else }}
  <p>No stubs generated yet.</p>
  {{- end }}
</body>
</html>
`))

func cardsHandler(fs afero.Fs, outputDir string, log *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stubs, findings, err := inspect.ReadStubs(fs, outputDir)
		if err != nil {
			log.Warnf("Could not read stubs: %v", err)
		}
		for _, s := range stubs {
			findings = append(findings, inspect.Check(s)...)
		}

		var buf bytes.Buffer
		if err := cardsTemplate.Execute(&buf, struct {
			Stubs    []inspect.Stub
			Findings []inspect.Finding
		}{stubs, findings}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	})
}

// liveReloadWrapper injects the reload script before </body> of successful
// HTML responses.
func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		iw := newInterceptingWriter(w)
		next.ServeHTTP(iw, r)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		body := iw.body.Bytes()
		if iw.statusCode == http.StatusOK {
			body = bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.WriteHeader(iw.statusCode)
		w.Write(body)
	})
}

type interceptingWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter(w http.ResponseWriter) *interceptingWriter {
	return &interceptingWriter{
		ResponseWriter: w,
		body:           new(bytes.Buffer),
		header:         make(http.Header),
		statusCode:     http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    var socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection error. Please restart 'ogstub serve'.");
    };
  })();
</script>
`
