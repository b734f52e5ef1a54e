// Package storage resolves receipt references against the university
// object store. The approval core keeps only reference strings; bytes
// never pass through this service.
package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusfin/expense-approval/internal/application/port"
	"github.com/campusfin/expense-approval/pkg/utils"
)

// ReceiptStore implements port.ReceiptStore by mapping reference strings
// onto a configured base URL
type ReceiptStore struct {
	baseURL string
	logger  *zap.Logger
}

// NewReceiptStore creates a new receipt store resolver
func NewReceiptStore(baseURL string, logger *zap.Logger) port.ReceiptStore {
	return &ReceiptStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ResolveURL maps a receipt reference to a retrievable URL
func (s *ReceiptStore) ResolveURL(ctx context.Context, ref string) (string, error) {
	if err := utils.ValidateReceiptRef(ref); err != nil {
		return "", fmt.Errorf("resolve receipt: %w", err)
	}
	url := fmt.Sprintf("%s/%s", s.baseURL, ref)
	s.logger.Debug("Resolved receipt reference", zap.String("ref", ref), zap.String("url", url))
	return url, nil
}

// Verify interface compliance
var _ port.ReceiptStore = (*ReceiptStore)(nil)
