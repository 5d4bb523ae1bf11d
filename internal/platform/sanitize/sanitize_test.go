package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Nice post  ", "Nice post"},
		{"script", `<script>alert(1)</script>hello`, "hello"},
		{"tags kept as text", "<b>bold</b> and <a href=\"x\">link</a>", "bold and link"},
		{"entities", "fish & chips < 5", "fish & chips < 5"},
		{"only markup", "<img src=x onerror=alert(1)>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}
