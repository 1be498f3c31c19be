package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/models"
)

// AuditLogRepository handles audit log data operations
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, req *models.AuditLogCreateRequest) (*models.AuditLog, error) {
	query := `
		INSERT INTO admin_audit_log (admin_user_id, action, target_type, target_id, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	details := string(req.Details)
	if details == "" {
		details = "{}"
	}

	auditLog := &models.AuditLog{
		AdminUserID: req.AdminUserID,
		Action:      req.Action,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Details:     []byte(details),
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		CreatedAt:   time.Now().UTC(),
	}

	err := r.db.QueryRowContext(ctx, query,
		auditLog.AdminUserID,
		auditLog.Action,
		auditLog.TargetType,
		auditLog.TargetID,
		details,
		auditLog.IPAddress,
		auditLog.UserAgent,
		auditLog.CreatedAt,
	).Scan(&auditLog.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return auditLog, nil
}

// List retrieves audit logs matching filter, newest first, with the total count
func (r *AuditLogRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, int, error) {
	var conditions []string
	var args []interface{}
	addCondition := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.AdminUserID > 0 {
		addCondition("al.admin_user_id = $%d", filter.AdminUserID)
	}
	if filter.Action != "" {
		addCondition("al.action = $%d", filter.Action)
	}
	if filter.TargetType != "" {
		addCondition("al.target_type = $%d", filter.TargetType)
	}
	if filter.TargetID > 0 {
		addCondition("al.target_id = $%d", filter.TargetID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_audit_log al"+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to get audit log count: %w", err)
	}

	query := `
		SELECT al.id, al.admin_user_id, al.action, al.target_type, al.target_id,
		       al.details, al.ip_address, al.user_agent, al.created_at,
		       u.id, u.name, u.email
		FROM admin_audit_log al
		LEFT JOIN users u ON al.admin_user_id = u.id` + whereClause + `
		ORDER BY al.created_at DESC, al.id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	auditLogs := []*models.AuditLog{}
	for rows.Next() {
		auditLog := &models.AuditLog{}
		var (
			details   string
			adminID   sql.NullInt64
			adminName sql.NullString
			adminMail sql.NullString
		)

		err := rows.Scan(
			&auditLog.ID,
			&auditLog.AdminUserID,
			&auditLog.Action,
			&auditLog.TargetType,
			&auditLog.TargetID,
			&details,
			&auditLog.IPAddress,
			&auditLog.UserAgent,
			&auditLog.CreatedAt,
			&adminID,
			&adminName,
			&adminMail,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log: %w", err)
		}

		auditLog.Details = []byte(details)
		if adminID.Valid {
			auditLog.AdminUser = &models.UserSummary{
				ID:    int(adminID.Int64),
				Name:  adminName.String,
				Email: adminMail.String,
			}
		}

		auditLogs = append(auditLogs, auditLog)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return auditLogs, totalCount, nil
}
