package services

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/models"
)

// auditService writes the audit trail of imports, deletions and refreshes.
type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db, log: logger.Named("audit")}
}

// Log records an audit event. An empty ownerID marks a pipeline call.
// Write failures are logged and never returned.
func (s *auditService) Log(ownerID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	actor := models.ActorOwner
	if ownerID == "" {
		actor = models.ActorPipeline
	}

	entry := &models.AuditLog{
		OwnerID:      ownerID,
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      s.encodeChanges(action, changes),
	}
	if err := s.db.Create(entry).Error; err != nil {
		s.log.Errorw("Failed to write audit entry",
			"error", err,
			"actor", actor,
			"owner_id", ownerID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}

func (s *auditService) encodeChanges(action string, changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		s.log.Warnw("Unencodable audit changes", "action", action, "error", err)
		return "{}"
	}
	return string(data)
}
