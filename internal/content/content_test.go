package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIframeTree(t *testing.T) {
	node := Iframe("https://widget.example.com/embed", nil)

	require.Len(t, node.Children, 1)
	frame := node.Children[0]
	assert.Equal(t, "iframe", frame.Tag)
	assert.Equal(t, "https://widget.example.com/embed", frame.Props["src"])
	assert.Equal(t, "100%", frame.Props["style.width"])
}

func TestIframeCustomStyle(t *testing.T) {
	node := Iframe("https://widget.example.com/embed", map[string]string{"height": "400px"})

	frame := node.Children[0]
	assert.Equal(t, "400px", frame.Props["style.height"])
	_, hasWidth := frame.Props["style.width"]
	assert.False(t, hasWidth, "custom style must replace the default, not merge")
}

func TestRenderPlaceholderDefaults(t *testing.T) {
	node, err := RenderPlaceholder("", PlaceholderData{RouteName: "widget", DisplayName: "Course Widget"})
	require.NoError(t, err)

	require.Len(t, node.Children, 1)
	assert.Equal(t, "Loading Course Widget...", node.Children[0].Text)
}

func TestRenderPlaceholderFallsBackToRouteName(t *testing.T) {
	node, err := RenderPlaceholder("", PlaceholderData{RouteName: "widget"})
	require.NoError(t, err)
	assert.Equal(t, "Loading widget...", node.Children[0].Text)
}

func TestRenderPlaceholderCustomTemplate(t *testing.T) {
	node, err := RenderPlaceholder(`{{ .DisplayName | upper }}`, PlaceholderData{DisplayName: "widget"})
	require.NoError(t, err)
	assert.Equal(t, "WIDGET", node.Children[0].Text)
}

func TestRenderPlaceholderBadTemplate(t *testing.T) {
	_, err := RenderPlaceholder(`{{ .Broken`, PlaceholderData{})
	assert.Error(t, err)
}

func TestRenderPlaceholderNeverEmbedsContent(t *testing.T) {
	node, err := RenderPlaceholder("", PlaceholderData{RouteName: "widget"})
	require.NoError(t, err)

	for _, child := range node.Children {
		assert.NotEqual(t, "iframe", child.Tag)
	}
}
