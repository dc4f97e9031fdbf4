package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdered(t *testing.T) {
	choices := []string{"nvim", "vim", "nano"}

	assert.Equal(t, []string{"vim", "nvim", "nano"}, Ordered(choices, "vim"))
	assert.Equal(t, choices, Ordered(choices, "emacs"))
	assert.Equal(t, []string{"nvim", "vim", "nano"}, choices, "input is not modified")
}
