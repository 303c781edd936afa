// Package handoff defines how a preview stub passes the deep-linked route to
// the client application. The stub stores the route in sessionStorage under
// StorageKey and navigates to BasePath; the application reads and clears the
// slot on startup, then restores the route. Both halves are generated from
// the same Contract so they cannot drift apart.
package handoff

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/spf13/afero"
)

// StorageKey is the sessionStorage slot shared by stubs and the application.
const StorageKey = "ogstub:redirect"

type Contract struct {
	StorageKey string
	BasePath   string
}

// New returns the contract for an application served from basePath.
func New(basePath string) Contract {
	basePath = "/" + strings.Trim(basePath, "/")
	if basePath != "/" {
		basePath += "/"
	}
	return Contract{StorageKey: StorageKey, BasePath: basePath}
}

// RoutePath is the application-relative route of a blog post.
func RoutePath(blogPath, slug string) string {
	return "/" + strings.Trim(blogPath, "/") + "/" + slug
}

// Script is the stub side of the hand-off: remember route, then enter the app.
func (c Contract) Script(route string) template.JS {
	return template.JS(fmt.Sprintf(
		`try{sessionStorage.setItem(%s,%s)}catch(e){}window.location.replace(%s);`,
		jsString(c.StorageKey), jsString(route), jsString(c.BasePath),
	))
}

// AppScript is the application side of the hand-off. It must run before the
// client router reads window.location.
func (c Contract) AppScript() string {
	return fmt.Sprintf(`(function(){
  var key = %s;
  var base = %s;
  var route = null;
  try {
    route = sessionStorage.getItem(key);
    sessionStorage.removeItem(key);
  } catch (e) {}
  if (route && route.charAt(0) === "/") {
    window.history.replaceState(null, "", base.replace(/\/$/, "") + route);
  }
})();
`, jsString(c.StorageKey), jsString(c.BasePath))
}

// WriteAppScript writes AppScript to path, creating parent directories.
func (c Contract) WriteAppScript(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(parentDir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, []byte(c.AppScript()), 0644); err != nil {
		return fmt.Errorf("failed to write hand-off script %s: %w", path, err)
	}
	return nil
}

// jsString quotes s as a JavaScript string literal that is safe inside a
// <script> element.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func parentDir(path string) string {
	i := strings.LastIndexAny(path, `/\`)
	if i <= 0 {
		return "."
	}
	return path[:i]
}
