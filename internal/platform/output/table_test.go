package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "kind", "created")
	table.AddRow("users", "10")
	table.AddRows([][]string{{"articles", "30"}, {"comments", "90"}})
	table.Render()

	var lines []string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "KIND")
	assert.Contains(t, lines[0], "CREATED")
	assert.Contains(t, lines[1], "users")
	assert.Contains(t, lines[3], "comments")

	col := strings.Index(lines[0], "CREATED")
	for _, l := range lines[1:] {
		assert.Equal(t, col, strings.IndexAny(l, "0123456789"), "values line up under their header: %q", l)
	}
}
