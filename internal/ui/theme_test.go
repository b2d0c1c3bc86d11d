package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0s"},
		{-5, "0s"},
		{20, "20s"},
		{245, "4m05s"},
		{3723, "1h02m03s"},
		{4 * 3600, "4h00m00s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Seconds(tt.in))
	}
}

func TestTextHelpers(t *testing.T) {
	assert.Contains(t, StatusText("Pending"), "pending")
	assert.Contains(t, StatusText("until_reset"), "until_reset")
	assert.Contains(t, StatusText("weird"), "weird")
	assert.Contains(t, EnabledText(true), "enabled")
	assert.Contains(t, EnabledText(false), "disabled")
	assert.Contains(t, Heading(" ☕ ", "Status"), "☕ Status")
	assert.Contains(t, LabelValue("Running", true), "Running:")
	assert.Contains(t, LabelValue("Running", true), "true")
}
