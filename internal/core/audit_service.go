package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/messagequeue"
	"github.com/example/moviecatalog/internal/models"
)

// auditService implements AuditService. Entries are published as JSON to a
// queue when a publisher is configured, and written to the log otherwise.
type auditService struct {
	publisher messagequeue.Publisher
	queue     string
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService. publisher may be nil.
func NewAuditService(publisher messagequeue.Publisher, queue string, logger *zap.Logger) AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditService{publisher: publisher, queue: queue, logger: logger}
}

func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = time.Now().UTC()
	}

	if s.publisher == nil {
		s.logger.Info("Audit",
			zap.String("action", logEntry.Action),
			zap.String("targetType", logEntry.TargetType),
			zap.String("targetId", logEntry.TargetID),
			zap.String("userId", logEntry.UserID),
			zap.Any("details", logEntry.Details),
		)
		return nil
	}

	body, err := json.Marshal(logEntry)
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}
	if err := s.publisher.Publish(s.queue, "application/json", body); err != nil {
		return fmt.Errorf("failed to publish audit log: %w", err)
	}
	return nil
}
