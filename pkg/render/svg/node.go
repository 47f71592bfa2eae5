// Package svg builds SVG documents as a node tree. Nodes carry a data-key
// derived from the data they draw, so two renders of the same data produce
// the same identifiers.
package svg

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"
)

const namespace = "http://www.w3.org/2000/svg"

type attr struct {
	name  string
	value string
}

// Node is one SVG element.
type Node struct {
	Name     string
	Text     string
	Children []*Node
	attrs    []attr
}

func El(name string) *Node {
	return &Node{Name: name}
}

// Document returns an <svg> root with a matching viewBox.
func Document(width, height float64) *Node {
	return El("svg").
		Attr("xmlns", namespace).
		Attr("width", width).
		Attr("height", height).
		Attr("viewBox", "0 0 "+Num(width)+" "+Num(height))
}

// Attr sets an attribute, replacing any previous value. Floats are rounded
// to two decimals.
func (n *Node) Attr(name string, value any) *Node {
	v := format(value)
	for i := range n.attrs {
		if n.attrs[i].name == name {
			n.attrs[i].value = v
			return n
		}
	}
	n.attrs = append(n.attrs, attr{name: name, value: v})
	return n
}

func (n *Node) Key(key string) *Node {
	return n.Attr("data-key", key)
}

func (n *Node) Class(class string) *Node {
	if prev, ok := n.Get("class"); ok && prev != "" {
		return n.Attr("class", prev+" "+class)
	}
	return n.Attr("class", class)
}

func (n *Node) SetText(text string) *Node {
	n.Text = text
	return n
}

func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Add appends a new child element and returns it.
func (n *Node) Add(name string) *Node {
	child := El(name)
	n.Children = append(n.Children, child)
	return child
}

func (n *Node) Get(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// Find returns the first descendant (or n itself) with the given data-key.
func (n *Node) Find(key string) *Node {
	if k, ok := n.Get("data-key"); ok && k == key {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(key); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node, in document order, that satisfies match.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	n.walk(func(x *Node) {
		if match(x) {
			out = append(out, x)
		}
	})
	return out
}

// Keys lists the data-key values of the tree in document order.
func (n *Node) Keys() []string {
	var out []string
	n.walk(func(x *Node) {
		if k, ok := x.Get("data-key"); ok {
			out = append(out, k)
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// WithClass matches nodes whose class list contains class.
func WithClass(class string) func(*Node) bool {
	return func(n *Node) bool {
		v, ok := n.Get("class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func (n *Node) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	n.write(&buf)
	return buf.WriteTo(w)
}

func (n *Node) String() string {
	var buf bytes.Buffer
	n.write(&buf)
	return buf.String()
}

func (n *Node) write(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(n.Name)
	for _, a := range n.attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.name)
		buf.WriteString(`="`)
		buf.WriteString(Escape(a.value))
		buf.WriteByte('"')
	}
	if n.Text == "" && len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	buf.WriteString(Escape(n.Text))
	for _, c := range n.Children {
		c.write(buf)
	}
	buf.WriteString("</")
	buf.WriteString(n.Name)
	buf.WriteByte('>')
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func Escape(s string) string {
	return escaper.Replace(s)
}

// Num formats a coordinate with at most two decimals.
func Num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Translate formats a translate transform.
func Translate(x, y float64) string {
	return "translate(" + Num(x) + "," + Num(y) + ")"
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return Num(x)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}
