package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	p := New()

	t.Run("Markdown", func(t *testing.T) {
		out := p.Render("**Boil** the water")
		assert.Contains(t, out, "<strong>Boil</strong>")
	})

	t.Run("ScriptRemoved", func(t *testing.T) {
		out := p.Render("hello <script>alert(1)</script>")
		assert.NotContains(t, out, "<script>")
		assert.NotContains(t, out, "alert(1)</script>")
	})

	t.Run("JavascriptLinkDropped", func(t *testing.T) {
		out := p.Render("[x](javascript:alert(1))")
		assert.NotContains(t, out, "javascript:")
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", p.Render("   "))
	})
}

func TestPlainText(t *testing.T) {
	p := New()
	assert.Equal(t, "Nonna's Pasta & Beans", p.PlainText("<b>Nonna's</b> Pasta & Beans"))
	assert.Equal(t, "Sicily", p.PlainText("  <img src=x onerror=alert(1)>Sicily "))
}
