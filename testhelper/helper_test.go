package testhelper

import (
	"os"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTrimIndent(t *testing.T) {
	src := `
		tables:
			items:
				alias: i
		`

	assert.Equal(t, "tables:\n    items:\n        alias: i\n", TrimIndent(t, src))
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "pgxlate.yaml", "dialect: postgres\n")

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "dialect: postgres\n", string(data))
}
