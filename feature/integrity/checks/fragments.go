package checks

import (
	"bytes"
	"context"
	"strings"

	"rebelinux-site/core/document"
	"rebelinux-site/core/fragment"
	"rebelinux-site/core/storage"

	"golang.org/x/net/html"
)

// RequiredFragments lists the shared fragments every page shell mounts.
var RequiredFragments = []string{
	"components/header.html",
	"components/footer.html",
}

// RequiredPages lists the page shells that must exist.
var RequiredPages = []string{
	"pages/index.html",
}

// FragmentReport is the result of CheckFragments.
type FragmentReport struct {
	// Missing lists required objects absent from the bucket.
	Missing []string `json:"missing"`
	// Malformed lists objects that exist but would not assemble cleanly: fragments that are
	// full documents, or shells lacking a mount point.
	Malformed []string `json:"malformed"`
}

// OK reports whether nothing is missing or malformed.
func (r *FragmentReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Malformed) == 0
}

// CheckFragments verifies the shared fragments and page shells.
func CheckFragments(ctx context.Context, client storage.Client, bucket string) (*FragmentReport, error) {
	if err := ensureBucket(ctx, client, bucket); err != nil {
		return nil, err
	}

	report := &FragmentReport{Missing: []string{}, Malformed: []string{}}

	for _, name := range RequiredFragments {
		data, ok, err := read(ctx, client, bucket, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Missing = append(report.Missing, name)
			continue
		}
		if isFullDocument(data) {
			report.Malformed = append(report.Malformed, name)
		}
	}

	for _, name := range RequiredPages {
		data, ok, err := read(ctx, client, bucket, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Missing = append(report.Missing, name)
			continue
		}
		doc, err := document.Parse(bytes.NewReader(data))
		if err != nil || !doc.HasContainer(fragment.HeaderContainer) || !doc.HasContainer(fragment.FooterContainer) {
			report.Malformed = append(report.Malformed, name)
		}
	}

	return report, nil
}

func read(ctx context.Context, client storage.Client, bucket, name string) ([]byte, bool, error) {
	exists, err := storage.ObjectExists(ctx, client, bucket, name)
	if err != nil || !exists {
		return nil, false, err
	}
	data, err := storage.ReadObject(ctx, client, bucket, name)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// isFullDocument reports whether markup carries its own html or body element.
func isFullDocument(data []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if tag == "html" || tag == "body" {
				return true
			}
		}
	}
}
