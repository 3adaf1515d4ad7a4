// Package site serves the marketing pages and the shared fragments they are built from.
//
// Page shells live in the storage bucket under pages/ and carry empty mount points
// (header-container, footer-container). Fragments live under components/ and are served
// over HTTP by this same feature, which makes the server its own fragment origin.
//
// # Page Assembly
//
// Every page request is a fresh navigation: the shell is parsed into a document.Document,
// a new fragment.Loader with clean state fetches the fragments from the configured origin
// (through a shared caching fetcher) and, once every fragment is mounted, the setup
// sequence runs:
//
//   - navigation: wires the mobile nav toggle to its menu (aria-controls, aria-expanded)
//   - dropdowns: marks dropdown toggles as popup triggers
//   - active-nav: highlights the nav link matching the request path
//   - header-scroll: tags the site header with its scroll threshold
//   - back-to-top: appends the back-to-top control when the shell has none
//
// A fragment that cannot be loaded does not fail the request. The page is returned with
// an inline error block in the affected container and a dismissible error panel, and the
// X-Components-State header is set to "error".
//
// # HTTP Endpoints
//
//   - GET /components/:name : Serves a fragment from storage.
//   - GET / : Assembles pages/index.html.
//   - GET /:page : Assembles pages/<page>.html.
package site
