package contact_test

import (
	"testing"

	"github.com/dalemusser/leadhub/internal/app/system/contact"
	"github.com/stretchr/testify/assert"
)

func TestChecker_Plausible(t *testing.T) {
	c := contact.NewChecker("")
	assert.Equal(t, "IN", c.Region())

	tests := []struct {
		digits string
		want   bool
	}{
		{"", true},
		{"9876543210", true},
		{"12", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, c.Plausible(tc.digits), "Plausible(%q)", tc.digits)
	}
}

func TestChecker_FormatFallsBack(t *testing.T) {
	c := contact.NewChecker("in")
	assert.Equal(t, "12", c.Format("12"))
	assert.Equal(t, "", c.Format(""))
	assert.Contains(t, c.Format("9876543210"), "+91")
}
