// Package content assembles the render trees the session sends to the host:
// the iframe payload for an open panel and the lightweight placeholder shown
// in a registered route's content area.
package content

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"uefbridge/internal/uef"
)

// DefaultIframeStyle keeps the embedded frame filling the host panel.
var DefaultIframeStyle = map[string]string{
	"width":  "100%",
	"height": "100%",
	"border": "none",
}

// Iframe builds the render tree placing the embedded content URL into a
// host render target. A nil style falls back to DefaultIframeStyle.
func Iframe(src string, style map[string]string) *uef.ContentNode {
	if style == nil {
		style = DefaultIframeStyle
	}

	props := map[string]string{"src": src}
	for k, v := range style {
		props["style."+k] = v
	}

	return &uef.ContentNode{
		Tag: "div",
		Children: []*uef.ContentNode{
			{Tag: "iframe", Props: props},
		},
	}
}

// PlaceholderData is the template context for route placeholders.
type PlaceholderData struct {
	RouteName   string
	DisplayName string
}

// DefaultPlaceholderTemplate is used when no template is configured.
const DefaultPlaceholderTemplate = `Loading {{ .DisplayName | default .RouteName }}...`

// RenderPlaceholder renders the configured placeholder template into the
// route's initial contents. The placeholder deliberately carries no iframe:
// putting the embedded content here would double-load it next to the panel
// flow.
func RenderPlaceholder(tmpl string, data PlaceholderData) (*uef.ContentNode, error) {
	if tmpl == "" {
		tmpl = DefaultPlaceholderTemplate
	}

	parsed, err := template.New("placeholder").Funcs(sprig.FuncMap()).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse placeholder template: %w", err)
	}

	var buf bytes.Buffer
	if err := parsed.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render placeholder template: %w", err)
	}

	return &uef.ContentNode{
		Tag: "div",
		Children: []*uef.ContentNode{
			{Tag: "span", Text: buf.String()},
		},
	}, nil
}
