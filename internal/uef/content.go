package uef

// ContentNode is the host's render-tree record: an element tag, optional
// props, optional children. The host interprets the tree; the client only
// assembles it.
type ContentNode struct {
	Tag      string            `json:"tag"`
	Props    map[string]string `json:"props,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*ContentNode    `json:"children,omitempty"`
}
