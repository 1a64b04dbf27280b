// Package svgtrim crops the page-sized SVG written by a plotting
// library down to the ink it contains: it computes the tight bounding
// box of shapes and glyph outlines, and rewrites the document with a
// matching viewport.
package svgtrim

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/geoproc/bccbar/diag"
	"golang.org/x/net/html/charset"
)

// Attr is an attribute with its prefixed name, such as "xlink:href".
type Attr struct {
	Name, Value string
}

// Node is an element of the document, or a text node when Name is empty.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Data     string // text nodes only
	Parent   *Node
}

// Document is a parsed SVG document.
type Document struct {
	Root *Node // the <svg> element
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Parse reads an SVG document. Prefixes are kept as written.
// Comments, processing instructions and the doctype are dropped.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	var (
		root  *Node
		stack []*Node
	)
	for {
		t, err := decoder.RawToken()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, diag.Wrap(diag.ParseFailure, err, "reading svg")
		}
		switch tok := t.(type) {
		case xml.StartElement:
			n := &Node{Name: qualified(tok.Name)}
			for _, a := range tok.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, diag.New(diag.ParseFailure, "several root elements")
				}
				root = n
			} else {
				stack[len(stack)-1].append(n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].Name != qualified(tok.Name) {
				return nil, diag.New(diag.ParseFailure, "unexpected </%s>", qualified(tok.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 || strings.TrimSpace(string(tok)) == "" {
				continue
			}
			stack[len(stack)-1].append(&Node{Data: string(tok)})
		}
	}
	if len(stack) != 0 {
		return nil, diag.New(diag.ParseFailure, "unclosed <%s>", stack[len(stack)-1].Name)
	}
	if root == nil || (root.Name != "svg" && !strings.HasSuffix(root.Name, ":svg")) {
		return nil, diag.New(diag.ParseFailure, "not an svg document")
	}
	return &Document{Root: root}, nil
}

func (n *Node) append(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// IsText is true for text nodes.
func (n *Node) IsText() bool { return n.Name == "" }

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the id attribute, or "".
func (n *Node) ID() string {
	id, _ := n.Attr("id")
	return id
}

// Href returns the link of a <use> element, without the leading '#'.
func (n *Node) Href() string {
	h, ok := n.Attr("xlink:href")
	if !ok {
		h, _ = n.Attr("href")
	}
	return strings.TrimPrefix(strings.TrimSpace(h), "#")
}

// SetAttr sets or adds an attribute.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes an attribute, if present.
func (n *Node) RemoveAttr(name string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

func (n *Node) indexInParent() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Remove detaches n and its subtree from the document.
func (n *Node) Remove() {
	i := n.indexInParent()
	if i < 0 {
		return
	}
	p := n.Parent
	p.Children = append(p.Children[:i], p.Children[i+1:]...)
	n.Parent = nil
}

// Unwrap replaces n by its children.
func (n *Node) Unwrap() {
	i := n.indexInParent()
	if i < 0 {
		return
	}
	p := n.Parent
	children := make([]*Node, 0, len(p.Children)-1+len(n.Children))
	children = append(children, p.Children[:i]...)
	for _, c := range n.Children {
		c.Parent = p
		children = append(children, c)
	}
	children = append(children, p.Children[i+1:]...)
	p.Children = children
	n.Parent, n.Children = nil, nil
}

// Walk visits n and its descendants in document order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range append([]*Node(nil), n.Children...) {
		c.Walk(fn)
	}
}

// Find returns the first element with the given id, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if !c.IsText() && c.ID() == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns the elements with the given name, in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Name == name {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Within reports whether n has an ancestor with the given name.
func (n *Node) Within(name string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Defs returns the elements with an id found directly under
// any <defs>, clip paths excepted.
func (d *Document) Defs() map[string]*Node {
	out := make(map[string]*Node)
	for _, defs := range d.Root.FindAll("defs") {
		for _, c := range defs.Children {
			if c.IsText() || c.Name == "clipPath" {
				continue
			}
			if id := c.ID(); id != "" {
				out[id] = c
			}
		}
	}
	return out
}

// Prune removes the groups of a matplotlib figure which only
// add margins: the page background, the dummy axes, and the
// wrapper groups of the real axes.
func (d *Document) Prune() {
	if p := d.Root.Find("patch_1"); p != nil {
		p.Remove()
	}
	a2, a3 := d.Root.Find("axes_2"), d.Root.Find("axes_3")
	if a3 == nil {
		if a2 != nil {
			a2.Remove()
		}
	} else {
		a3.Remove()
		if a2 != nil {
			a2.Unwrap()
		}
	}
	for _, id := range []string{"axes_1", "matplotlib.axis_1", "matplotlib.axis_2", "matplotlib.axis_3"} {
		if g := d.Root.Find(id); g != nil {
			g.Unwrap()
		}
	}
}
