package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"

	"rebelinux-site/core/document"
	"rebelinux-site/core/fragment"
	"rebelinux-site/core/storage"

	"go.uber.org/zap"
)

const (
	pagesPrefix      = "pages/"
	componentsPrefix = "components/"
)

// ErrInvalidName is returned for page or fragment names outside the allowed charset.
var ErrInvalidName = errors.New("invalid name")

var (
	pageName     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	fragmentName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.html$`)
)

// Page is an assembled page.
type Page struct {
	HTML   []byte
	State  fragment.Snapshot
	Report fragment.Report
	// CycleErr is set when a fragment failed; HTML then carries the error markup.
	CycleErr error
}

// Service assembles pages and serves fragments.
type Service struct {
	client      storage.Client
	bucket      string
	logger      *zap.Logger
	fetcher     fragment.Fetcher
	descriptors []fragment.Descriptor
	policy      fragment.Policy
}

// NewService creates a site service. Fragments are fetched through fetcher from the
// origin configured in cfg.
func NewService(client storage.Client, bucket string, logger *zap.Logger, fetcher fragment.Fetcher, cfg fragment.Config) (*Service, error) {
	descriptors, err := fragment.DefaultDescriptors(cfg.Origin)
	if err != nil {
		return nil, err
	}
	return &Service{
		client:      client,
		bucket:      bucket,
		logger:      logger,
		fetcher:     fetcher,
		descriptors: descriptors,
		policy:      cfg.Policy(),
	}, nil
}

// Fragment returns the raw fragment stored under components/<name>.
func (s *Service) Fragment(ctx context.Context, name string) ([]byte, error) {
	if !fragmentName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return storage.ReadObject(ctx, s.client, s.bucket, componentsPrefix+name)
}

// Page assembles pages/<name>.html for a request at path.
// Fragment failures degrade the page instead of returning an error.
func (s *Service) Page(ctx context.Context, name, path string, logger *zap.Logger) (*Page, error) {
	if !pageName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if logger == nil {
		logger = s.logger
	}

	shell, err := storage.ReadObject(ctx, s.client, s.bucket, pagesPrefix+name+".html")
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(bytes.NewReader(shell))
	if err != nil {
		return nil, err
	}

	l := fragment.New(doc, s.descriptors, fragment.Options{
		Fetcher:  s.fetcher,
		Policy:   s.policy,
		Setup:    NewSetup(doc, path, logger),
		RetryURL: path,
		Logger:   logger.With(zap.String("page", name)),
	})

	report, cycleErr := l.LoadAll(ctx)
	if report.SetupErr != nil {
		logger.Warn("Page setup incomplete", zap.String("page", name), zap.Error(report.SetupErr))
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render page %s: %w", name, err)
	}

	return &Page{
		HTML:     buf.Bytes(),
		State:    l.State(),
		Report:   report,
		CycleErr: cycleErr,
	}, nil
}
