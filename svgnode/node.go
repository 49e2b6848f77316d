// Parses SVG documents into a generic node tree.
// Every element becomes a Node carrying its normalized attributes
// and its resolved style (class rules merged with the inline style).
// The tree is meant to be consumed read-only by a presentation layer,
// and is replaced wholesale when a new document is loaded.
package svgnode

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgmap/svgstyle"
)

const (
	// TextNodeTag is the tag of the synthetic nodes holding text content.
	TextNodeTag = "textNode"
	// TextContentAttr is the only attribute of a text node.
	TextContentAttr = "textContent"
)

// Node is one element of the parsed document.
// A text node (Tag == TextNodeTag) has no children and exactly one
// attribute, TextContentAttr.
type Node struct {
	Tag        string
	Attributes map[string]string // normalized names, without "style"
	Style      svgstyle.StyleMap // nil when neither a class nor an inline style applies
	Children   []Node
}

func textNode(content string) Node {
	return Node{Tag: TextNodeTag, Attributes: map[string]string{TextContentAttr: content}}
}

// IsText returns true for synthetic text nodes.
func (n *Node) IsText() bool { return n.Tag == TextNodeTag }

// Text returns the content of a text node, or the concatenated
// content of the direct text children of an element.
func (n *Node) Text() string {
	if n.IsText() {
		return n.Attributes[TextContentAttr]
	}
	var chunks []string
	for i := range n.Children {
		if n.Children[i].IsText() {
			chunks = append(chunks, n.Children[i].Attributes[TextContentAttr])
		}
	}
	return strings.Join(chunks, " ")
}

// ID returns the `id` attribute, or an empty string.
func (n *Node) ID() string { return n.Attributes["id"] }

// Title returns the label shown for the node: its `data-title`
// attribute, else its id, else its tag name.
func (n *Node) Title() string {
	if t := n.Attributes["data-title"]; t != "" {
		return t
	}
	if id := n.ID(); id != "" {
		return id
	}
	return n.Tag
}

// MarshalJSON outputs the node as {tag, attributes, children},
// with the style map nested in the attributes under "style".
func (n Node) MarshalJSON() ([]byte, error) {
	attrs := make(map[string]interface{}, len(n.Attributes)+1)
	for k, v := range n.Attributes {
		attrs[k] = v
	}
	if n.Style != nil {
		attrs["style"] = n.Style
	}
	children := n.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(struct {
		Tag        string                 `json:"tag"`
		Attributes map[string]interface{} `json:"attributes"`
		Children   []Node                 `json:"children"`
	}{n.Tag, attrs, children})
}

// RootAttributes holds the attributes of the root <svg> element:
// names are camel-cased, `class` is renamed `className` and
// `style` is kept as a raw string.
type RootAttributes map[string]string

// Document is the result of a successful parse.
type Document struct {
	Root         RootAttributes `json:"root"`
	Nodes        []Node         `json:"nodes"`
	Titles       []string       `json:"titles,omitempty"`       // <title> elements of the root
	Descriptions []string       `json:"descriptions,omitempty"` // <desc> elements of the root
}

// Ref locates a node in a Document, as the sequence of child
// indexes from Document.Nodes.
type Ref []int

// Key returns a string usable as map key, like "0.3.1".
func (r Ref) Key() string {
	chunks := make([]string, len(r))
	for i, v := range r {
		chunks[i] = strconv.Itoa(v)
	}
	return strings.Join(chunks, ".")
}

// Equal reports whether r and other point to the same node.
func (r Ref) Equal(other Ref) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Lookup returns the node at ref.
func (d *Document) Lookup(ref Ref) (*Node, bool) {
	if d == nil || len(ref) == 0 {
		return nil, false
	}
	nodes := d.Nodes
	var n *Node
	for _, i := range ref {
		if i < 0 || i >= len(nodes) {
			return nil, false
		}
		n = &nodes[i]
		nodes = n.Children
	}
	return n, true
}

// Walk visits the nodes in document order. The children of a node are
// skipped when fn returns false.
func (d *Document) Walk(fn func(ref Ref, n *Node) bool) {
	if d == nil {
		return
	}
	walk(d.Nodes, nil, fn)
}

func walk(nodes []Node, parent Ref, fn func(Ref, *Node) bool) {
	for i := range nodes {
		ref := append(append(Ref{}, parent...), i)
		if fn(ref, &nodes[i]) {
			walk(nodes[i].Children, ref, fn)
		}
	}
}
