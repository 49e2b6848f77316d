package svgnode

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/benoitkugler/svgmap/svgstyle"
)

// ErrInvalidDocument is returned when the input has no parseable <svg> root.
var ErrInvalidDocument = errors.New("invalid svg document")

// element is the raw tree read from the XML stream,
// before any normalization.
type element struct {
	name     string // qualified name, like "rect" or "svg:rect"
	local    string
	attrs    []xml.Attr
	children []item
}

// item is either a child element or a text run
type item struct {
	elem *element
	text string
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// decodeTree reads the whole stream and returns the first <svg>
// element in document order.
// Namespace prefixes are kept as written, which is why RawToken is
// used; element nesting is then checked here.
func decodeTree(stream io.Reader) (*element, error) {
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Entity = xml.HTMLEntity
	var (
		stack []*element
		svg   *element
	)
	for {
		t, err := decoder.RawToken()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch se := xml.CopyToken(t).(type) {
		case xml.StartElement:
			el := &element{name: qualifiedName(se.Name), local: se.Name.Local, attrs: se.Attr}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.children = append(top.children, item{elem: el})
			}
			if svg == nil && se.Name.Local == "svg" {
				svg = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			name := qualifiedName(se.Name)
			if len(stack) == 0 || stack[len(stack)-1].name != name {
				return nil, fmt.Errorf("unexpected end element </%s>", name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.children = append(top.children, item{text: string(se)})
			}
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].name)
	}
	if svg == nil {
		return nil, errors.New("no <svg> element")
	}
	return svg, nil
}

// textContent concatenates the text of all the descendants.
func (el *element) textContent() string {
	var b strings.Builder
	var rec func(e *element)
	rec = func(e *element) {
		for _, it := range e.children {
			if it.elem != nil {
				rec(it.elem)
			} else {
				b.WriteString(it.text)
			}
		}
	}
	rec(el)
	return b.String()
}

// attrName applies the attribute naming rules:
// `class` becomes `className`, other names are camel-cased
// (except data-* and aria-*).
func attrName(n xml.Name) string {
	name := qualifiedName(n)
	if name == "class" {
		return "className"
	}
	return svgstyle.CamelCase(name)
}

func rootAttributes(svg *element) RootAttributes {
	out := make(RootAttributes, len(svg.attrs))
	for _, attr := range svg.attrs {
		name := attrName(attr.Name)
		out[name] = attr.Value
	}
	return out
}

// Parser converts SVG markup into a node tree.
// The zero value is ready to use.
type Parser struct {
	// Styles resolves `style` attributes and `<style>` blocks.
	// A malformed style entry never invalidates a document:
	// StrictErrorMode is handled as WarnErrorMode.
	Styles svgstyle.Resolver
}

func (p Parser) styles() svgstyle.Resolver {
	r := p.Styles
	if r.Mode == svgstyle.StrictErrorMode {
		r.Mode = svgstyle.WarnErrorMode
	}
	return r
}

// Parse is a shortcut for Parser{}.Parse(markup).
func Parse(markup string) (*Document, error) {
	return Parser{}.Parse(markup)
}

// Parse builds the document for markup. When the markup has no
// valid <svg> root, an empty (non nil) document is returned
// alongside an error wrapping ErrInvalidDocument.
func (p Parser) Parse(markup string) (*Document, error) {
	return p.Read(strings.NewReader(markup))
}

// Read is like Parse, but reads the markup from stream.
// Non UTF-8 encodings declared in the XML header are supported.
func (p Parser) Read(stream io.Reader) (*Document, error) {
	svg, err := decodeTree(stream)
	if err != nil {
		return &Document{Root: RootAttributes{}, Nodes: []Node{}}, fmt.Errorf("%w: %s", ErrInvalidDocument, err)
	}

	b := builder{resolver: p.styles()}
	b.collectStyles(svg)

	doc := &Document{Root: rootAttributes(svg), Nodes: []Node{}}
	for _, it := range svg.children {
		if it.elem == nil {
			continue // text directly under the root is not rendered
		}
		switch it.elem.local {
		case "style":
			continue
		case "title":
			doc.Titles = append(doc.Titles, strings.TrimSpace(it.elem.textContent()))
		case "desc":
			doc.Descriptions = append(doc.Descriptions, strings.TrimSpace(it.elem.textContent()))
		}
		doc.Nodes = append(doc.Nodes, b.node(it.elem))
	}
	return doc, nil
}

// ParseRootAttributes only reads the attributes of the root <svg>
// element. It returns an empty map and an error wrapping
// ErrInvalidDocument when there is none.
func ParseRootAttributes(markup string) (RootAttributes, error) {
	svg, err := decodeTree(strings.NewReader(markup))
	if err != nil {
		return RootAttributes{}, fmt.Errorf("%w: %s", ErrInvalidDocument, err)
	}
	return rootAttributes(svg), nil
}

type builder struct {
	resolver svgstyle.Resolver
	classes  svgstyle.ClassStyles
}

// collectStyles parses every <style> element of the document,
// later blocks overriding earlier ones.
func (b *builder) collectStyles(svg *element) {
	b.classes = svgstyle.ClassStyles{}
	var rec func(e *element)
	rec = func(e *element) {
		for _, it := range e.children {
			if it.elem == nil {
				continue
			}
			if it.elem.local != "style" {
				rec(it.elem)
				continue
			}
			block, _ := b.resolver.ParseBlocks(it.elem.textContent())
			for class, style := range block {
				b.classes[class] = b.classes[class].Merge(style)
			}
		}
	}
	rec(svg)
}

func (b *builder) node(el *element) Node {
	out := Node{Tag: el.name, Attributes: make(map[string]string, len(el.attrs))}
	var (
		inline    svgstyle.StyleMap
		hasInline bool
		classes   []string
	)
	for _, attr := range el.attrs {
		name := attrName(attr.Name)
		switch name {
		case "style":
			inline, _ = b.resolver.ParseInline(attr.Value)
			hasInline = true
		case "className":
			classes = strings.Fields(attr.Value)
			out.Attributes[name] = attr.Value
		default:
			out.Attributes[name] = attr.Value
		}
	}
	out.Style = b.classes.Resolve(classes)
	if hasInline {
		out.Style = out.Style.Merge(inline) // inline wins
	}

	// <text> takes its whole content at once, to avoid rendering
	// the text of nested <tspan> twice
	if el.local == "text" {
		if content := strings.TrimSpace(el.textContent()); content != "" {
			out.Children = []Node{textNode(content)}
		}
		return out
	}

	var texts []Node
	for _, it := range el.children {
		if it.elem != nil {
			if it.elem.local == "style" {
				continue
			}
			out.Children = append(out.Children, b.node(it.elem))
		} else if content := strings.TrimSpace(it.text); content != "" {
			texts = append(texts, textNode(content))
		}
	}
	out.Children = append(out.Children, texts...)
	return out
}
