package fragment

import (
	"fmt"
	"net/url"
	"time"
)

// Container ids the site's page shells expose.
const (
	HeaderContainer = "header-container"
	FooterContainer = "footer-container"
)

// Descriptor identifies a fragment and the container it is mounted into.
type Descriptor struct {
	ContainerID string
	URL         string
}

// Attempt describes one request of a fragment load.
type Attempt struct {
	Number      int
	MaxAttempts int
	Delay       time.Duration
	Timeout     time.Duration
}

// Last reports whether no retry follows this attempt.
func (a Attempt) Last() bool {
	return a.Number >= a.MaxAttempts
}

func (p Policy) attempt(n int) Attempt {
	return Attempt{
		Number:      n,
		MaxAttempts: p.MaxAttempts,
		Delay:       p.wait(),
		Timeout:     p.Timeout,
	}
}

// DefaultDescriptors returns the header and footer fragments resolved against origin.
func DefaultDescriptors(origin string) ([]Descriptor, error) {
	header, err := Resolve(origin, "header.html")
	if err != nil {
		return nil, err
	}
	footer, err := Resolve(origin, "footer.html")
	if err != nil {
		return nil, err
	}
	return []Descriptor{
		{ContainerID: HeaderContainer, URL: header},
		{ContainerID: FooterContainer, URL: footer},
	}, nil
}

// Resolve resolves ref relative to base.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid fragment reference %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
