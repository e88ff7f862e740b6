package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/uri"
)

func TestFormatLocations_PlainLocation(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"uri": string(uri.File("/workspace/pkg/foo.go")),
			"range": map[string]interface{}{
				"start": map[string]interface{}{"line": float64(4), "character": float64(2)},
				"end":   map[string]interface{}{"line": float64(4), "character": float64(10)},
			},
		},
	}

	locs := formatLocations(raw, "/workspace")
	assert.Len(t, locs, 1)
	assert.Equal(t, "pkg/foo.go", locs[0].Path)
	assert.Equal(t, 5, locs[0].Line)
	assert.Equal(t, 2, locs[0].Column)
}

func TestFormatLocations_LocationLink(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"targetUri": string(uri.File("/workspace/pkg/bar.go")),
			"targetSelectionRange": map[string]interface{}{
				"start": map[string]interface{}{"line": float64(1), "character": float64(0)},
			},
		},
	}

	locs := formatLocations(raw, "/workspace")
	assert.Len(t, locs, 1)
	assert.Equal(t, "pkg/bar.go", locs[0].Path)
	assert.Equal(t, 2, locs[0].Line)
}

func TestFormatLocations_NilResult(t *testing.T) {
	assert.Nil(t, formatLocations(nil, "/workspace"))
}
