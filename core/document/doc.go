// Package document models an HTML page shell that fragments are mounted into.
//
// A Document wraps a parsed golang.org/x/net/html tree and exposes the small set of
// operations the fragment loader and the page setup routines need: looking up mount
// points (containers) by id, replacing their content with parsed markup, appending
// panels to the body and rendering the result back to bytes.
//
// All mutations take the document lock, so fragments loaded on separate goroutines can
// be mounted into the same Document safely.
//
// # Usage
//
//	doc, err := document.ParseString(`<html><body><div id="header-container"></div></body></html>`)
//	if err != nil {
//	    return err
//	}
//	_ = doc.SetInnerHTML("header-container", "<nav>H</nav>")
//	out := doc.String()
package document
