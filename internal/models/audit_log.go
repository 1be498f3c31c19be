package models

import (
	"encoding/json"
	"time"
)

// AuditLog represents an administrative action log entry
type AuditLog struct {
	ID          int             `json:"id" db:"id"`
	AdminUserID int             `json:"admin_user_id" db:"admin_user_id"`
	Action      string          `json:"action" db:"action"`
	TargetType  string          `json:"target_type" db:"target_type"`
	TargetID    int             `json:"target_id" db:"target_id"`
	Details     json.RawMessage `json:"details" db:"details"`
	IPAddress   string          `json:"ip_address" db:"ip_address"`
	UserAgent   string          `json:"user_agent" db:"user_agent"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`

	// Related data
	AdminUser *UserSummary `json:"admin_user,omitempty"`
}

// AuditLogCreateRequest represents a request to create an audit log entry
type AuditLogCreateRequest struct {
	AdminUserID int
	Action      string
	TargetType  string
	TargetID    int
	Details     json.RawMessage
	IPAddress   string
	UserAgent   string
}

// AuditLogFilter narrows audit log listings
type AuditLogFilter struct {
	AdminUserID int
	Action      string
	TargetType  string
	TargetID    int
	Limit       int
	Offset      int
}

// Common audit actions
const (
	AuditActionEventApprove      = "event_approve"
	AuditActionEventDecline      = "event_decline"
	AuditActionEventStatusChange = "event_status_change"
	AuditActionEventDelete       = "event_delete"
	AuditActionUserRoleChange    = "user_role_change"
	AuditActionUserDelete        = "user_delete"
)

// Common target types
const (
	AuditTargetEvent = "event"
	AuditTargetUser  = "user"
)

// RequestMeta carries the caller's network details into audit entries
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
