package services

import (
	"fmt"
	"strings"

	"eventhub/internal/models"
)

// Policy describes who may perform an operation. An empty Roles list admits
// any authenticated user. A non-zero OwnerID additionally requires the caller
// to be that user. Admins satisfy every policy.
type Policy struct {
	Roles   []models.UserRole
	OwnerID int
}

// AdminOnly admits administrators only
func AdminOnly() Policy {
	return Policy{Roles: []models.UserRole{models.RoleAdmin}}
}

// OwnerOrAdmin admits the owning user and administrators
func OwnerOrAdmin(ownerID int) Policy {
	return Policy{OwnerID: ownerID}
}

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into the matching error kind
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == models.ErrUnauthenticated.Message {
		return models.ErrUnauthenticated
	}
	return models.NewAuthorizationError(d.Reason)
}

// Authorize evaluates policy for caller
func Authorize(caller *models.User, policy Policy) Decision {
	if caller == nil {
		return deny(models.ErrUnauthenticated.Message)
	}
	if caller.IsAdmin() {
		return allow()
	}

	if len(policy.Roles) > 0 && !hasRole(caller.Role, policy.Roles) {
		return deny(fmt.Sprintf("requires role %s", joinRoles(policy.Roles)))
	}
	if policy.OwnerID != 0 && policy.OwnerID != caller.ID {
		return deny("you do not have permission to access this resource")
	}
	return allow()
}

func hasRole(role models.UserRole, roles []models.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func joinRoles(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}
