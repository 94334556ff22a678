package tiles

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/osikes/hemisphere/internal/domain"
)

// Template is a tile URL pattern with {z}/{x}/{y} placeholders and, for
// overlay layers, {path} (feed-provided frame fragment) and {color} (fixed
// color scheme).
type Template string

// URLFunc builds the download URL for one tile. An error marks the tile as
// failed; it is dropped, not retried.
type URLFunc func(domain.TileCoordinate) (string, error)

// Bind fixes the non-coordinate parameters of the template and returns a
// URLFunc for one layer of one generation.
func (t Template) Bind(path, color string) URLFunc {
	return func(coord domain.TileCoordinate) (string, error) {
		s := string(t)
		s = strings.ReplaceAll(s, "{path}", path)
		s = strings.ReplaceAll(s, "{color}", color)
		s = strings.ReplaceAll(s, "{z}", strconv.Itoa(coord.Zoom))
		s = strings.ReplaceAll(s, "{x}", strconv.Itoa(coord.X))
		s = strings.ReplaceAll(s, "{y}", strconv.Itoa(coord.Y))

		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("tile url %q: %w", s, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("tile url %q: unsupported scheme %q", s, u.Scheme)
		}
		return s, nil
	}
}
