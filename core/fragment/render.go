package fragment

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// PanelID is the id of the page-level error panel.
const PanelID = "component-error-panel"

// ErrorBlock renders the inline failure notice placed inside a container.
// retryURL is the manual retry target; empty reloads the current page.
func ErrorBlock(d Descriptor, retryURL string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="component-error" role="alert" data-container="`+
			templ.EscapeString(d.ContainerID)+`"><p>This section could not be loaded.</p>`+
			`<a class="component-retry" href="`+templ.EscapeString(retryURL)+`">Retry</a></div>`)
		return err
	})
}

// ErrorPanel renders the dismissible page-level notice listing failed containers.
func ErrorPanel(failed []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="`+PanelID+`" class="component-error-panel" role="alert">`+
			`<p>Some parts of this page failed to load: `+templ.EscapeString(strings.Join(failed, ", "))+`.</p>`+
			`<button type="button" class="component-error-dismiss" aria-label="Dismiss" `+
			`onclick="this.parentElement.remove()">&times;</button></div>`)
		return err
	})
}

func renderString(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
