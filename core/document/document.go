package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrContainerNotFound is returned when no element carries the requested id.
var ErrContainerNotFound = errors.New("container not found")

// Document is a parsed HTML page.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// HasContainer reports whether an element with the given id exists.
func (d *Document) HasContainer(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return FindByID(d.root, id) != nil
}

// SetInnerHTML replaces the children of the element with the given id by the parsed markup.
func (d *Document) SetInnerHTML(id, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	container := FindByID(d.root, id)
	if container == nil {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), container)
	if err != nil {
		return fmt.Errorf("failed to parse markup for %s: %w", id, err)
	}

	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		container.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return nil
}

// InnerHTML renders the children of the element with the given id.
func (d *Document) InnerHTML(id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	container := FindByID(d.root, id)
	if container == nil {
		return "", fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}

	var buf bytes.Buffer
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// AppendToBody parses markup in body context and appends it as the last children of <body>.
func (d *Document) AppendToBody(markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := FindFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	if body == nil {
		return errors.New("document has no body")
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return fmt.Errorf("failed to parse body markup: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}

// Remove detaches the element with the given id. It reports whether one was found.
func (d *Document) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := FindByID(d.root, id)
	if n == nil || n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}

// Edit runs fn against the root node while holding the document lock.
// Setup routines use it to walk and annotate the tree.
func (d *Document) Edit(fn func(root *html.Node) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.root)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string if rendering fails.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
