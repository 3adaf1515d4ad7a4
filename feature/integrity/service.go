package integrity

import (
	"context"

	"rebelinux-site/core/storage"
	"rebelinux-site/feature/integrity/checks"

	"go.uber.org/zap"
)

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates a new integrity service.
func NewService(client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	return checks.CheckStructure(ctx, s.client, s.bucket)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckFragments verifies the shared fragments and page shells.
func (s *Service) CheckFragments(ctx context.Context) (*checks.FragmentReport, error) {
	return checks.CheckFragments(ctx, s.client, s.bucket)
}

// Report runs every check and returns a combined report keyed by check name.
func (s *Service) Report(ctx context.Context) map[string]interface{} {
	report := make(map[string]interface{})

	if missing, err := s.CheckStructure(ctx); err != nil {
		report["structure"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["structure"] = map[string]interface{}{"status": "ok", "missing": missing}
	}

	if frag, err := s.CheckFragments(ctx); err != nil {
		report["fragments"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["fragments"] = map[string]interface{}{"status": "ok", "missing": frag.Missing, "malformed": frag.Malformed}
	}

	return report
}
