package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// parseDSN turns a sqlite:// URL into a driver DSN. Relative paths are
// anchored at the working directory; a query string is passed through.
func parseDSN(dsn string) (path string, memory bool, err error) {
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok {
		return "", false, fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}
	if rest == ":memory:" || strings.HasPrefix(rest, ":memory:?") {
		return rest, true, nil
	}
	if rest == "" {
		return "", false, fmt.Errorf("sqlite DSN has no path")
	}

	path, query, _ := strings.Cut(rest, "?")
	path, err = url.PathUnescape(path)
	if err != nil {
		return "", false, fmt.Errorf("unescaping path: %w", err)
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if query != "" {
		path += "?" + query
	}
	return path, false, nil
}
