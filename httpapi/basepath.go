package httpapi

import (
	"net/http"
	"path"
	"strings"
)

// normalizeBasePath returns the mount prefix with a leading slash and no
// trailing slash, or "" when the editor is served at the root.
func normalizeBasePath(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	cleaned := path.Clean("/" + value)
	if cleaned == "/" {
		return ""
	}
	return cleaned
}

// buildBaseHref is the <base href> for the editor page. Relative asset and API
// paths in the page resolve against it.
func buildBaseHref(baseURL, basePath string) string {
	href := strings.TrimRight(strings.TrimSpace(baseURL), "/") + normalizeBasePath(basePath)
	if href == "" || strings.HasSuffix(href, "/") {
		return href
	}
	return href + "/"
}

// mountAt serves handler below prefix. The bare prefix redirects to prefix+"/"
// so relative paths in the editor page resolve.
func mountAt(prefix string, handler http.Handler) http.Handler {
	if prefix == "" {
		return handler
	}
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}
