package models

// Audit actors. Pipeline calls carry no owner.
const (
	ActorOwner    = "owner"
	ActorPipeline = "pipeline"
)

// AuditLog records operations that change an owner's holdings or the shared
// security master. Changes holds a JSON object of the operation's counts.
type AuditLog struct {
	Base
	OwnerID      string `gorm:"index" json:"owner_id,omitempty"`
	Actor        string `gorm:"not null;default:owner" json:"actor"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id,omitempty"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
