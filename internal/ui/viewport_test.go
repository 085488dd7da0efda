package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestViewportSearch(t *testing.T) {
	pv := NewPageViewport(nil)
	pv.SetSize(40, 2)
	pv.SetContent("alpha\n\x1b[1mBeta\x1b[0m\ngamma\nbeta again")

	line, ok := pv.Search("beta")
	assert.True(t, ok)
	assert.Equal(t, 2, line)

	line, ok = pv.SearchNext()
	assert.True(t, ok)
	assert.Equal(t, 4, line)

	// Wraps back to the first match.
	line, ok = pv.SearchNext()
	assert.True(t, ok)
	assert.Equal(t, 2, line)

	_, ok = pv.Search("delta")
	assert.False(t, ok)
	_, ok = pv.Search("  ")
	assert.False(t, ok)
}

func TestViewportBeforeReady(t *testing.T) {
	pv := NewPageViewport(nil)
	pv.SetContent("ignored")
	_, ok := pv.Search("ignored")
	assert.False(t, ok)
	assert.Equal(t, "TOP", pv.ScrollInfo())
	assert.Contains(t, pv.View(), "Initializing")
}

func TestViewportWelcome(t *testing.T) {
	pv := NewPageViewport(stubKeys{
		key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open URL")),
	})
	pv.SetSize(80, 20)
	view := pv.View()
	assert.Contains(t, view, "sandboxed frame")
	assert.Contains(t, view, "open URL")

	pv.SetContent("page")
	assert.NotContains(t, pv.View(), "open URL")
}
