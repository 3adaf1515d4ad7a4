package site

import (
	"context"
	"net/url"
	"strings"

	"rebelinux-site/core/document"
	"rebelinux-site/core/fragment"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	navMenuID         = "nav-menu"
	backToTopID       = "back-to-top"
	scrollThresholdPx = "50"
)

// NewSetup returns the ordered setup routines for a page requested at path.
func NewSetup(doc *document.Document, path string, logger *zap.Logger) fragment.Sequence {
	return fragment.Sequence{
		Logger: logger,
		Steps: []fragment.Step{
			{Name: "navigation", Run: edit(doc, setupNavigation)},
			{Name: "dropdowns", Run: edit(doc, setupDropdowns)},
			{Name: "active-nav", Run: edit(doc, func(root *html.Node) error {
				markActiveNav(root, path)
				return nil
			})},
			{Name: "header-scroll", Run: edit(doc, setupHeaderScroll)},
			{Name: "back-to-top", Run: edit(doc, setupBackToTop)},
		},
	}
}

func edit(doc *document.Document, fn func(root *html.Node) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return doc.Edit(fn)
	}
}

func setupNavigation(root *html.Node) error {
	toggle := document.FindFirst(root, document.HasClassMatcher("nav-toggle"))
	if toggle == nil {
		return nil
	}
	menu := document.FindFirst(root, document.HasClassMatcher("nav-menu"))
	if menu == nil {
		return nil
	}

	id := document.Attr(menu, "id")
	if id == "" {
		id = navMenuID
		document.SetAttr(menu, "id", id)
	}
	document.SetAttr(toggle, "aria-controls", id)
	collapse(toggle)
	return nil
}

func setupDropdowns(root *html.Node) error {
	for _, dropdown := range document.FindAll(root, document.HasClassMatcher("dropdown")) {
		toggle := document.FindFirst(dropdown, document.HasClassMatcher("dropdown-toggle"))
		if toggle == nil {
			continue
		}
		document.SetAttr(toggle, "aria-haspopup", "true")
		collapse(toggle)
	}
	return nil
}

// collapse marks toggle closed unless the markup already states its expansion.
func collapse(toggle *html.Node) {
	if !document.HasAttr(toggle, "aria-expanded") {
		document.SetAttr(toggle, "aria-expanded", "false")
	}
}

// markActiveNav flags the nav links pointing at path.
func markActiveNav(root *html.Node, path string) {
	current := normalizePath(path)
	for _, link := range document.FindAll(root, document.HasClassMatcher("nav-link")) {
		href := document.Attr(link, "href")
		u, err := url.Parse(href)
		if err != nil || u.Host != "" || strings.HasPrefix(href, "#") {
			continue
		}
		if normalizePath(u.Path) == current {
			document.AddClass(link, "active")
			document.SetAttr(link, "aria-current", "page")
		}
	}
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimSuffix(p, ".html")
	if p == "/index" {
		return "/"
	}
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

func setupHeaderScroll(root *html.Node) error {
	header := document.FindFirst(root, document.HasClassMatcher("site-header"))
	if header == nil {
		header = document.FindFirst(root, document.IsElement("header"))
	}
	if header == nil {
		return nil
	}
	document.AddClass(header, "header-scroll")
	document.SetAttr(header, "data-scroll-threshold", scrollThresholdPx)
	return nil
}

func setupBackToTop(root *html.Node) error {
	if document.FindByID(root, backToTopID) != nil {
		return nil
	}
	body := document.FindFirst(root, document.IsElement("body"))
	if body == nil {
		return nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(
		`<button id="`+backToTopID+`" class="back-to-top" type="button" aria-label="Back to top" hidden>&uarr;</button>`,
	), body)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}
