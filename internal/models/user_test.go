package models

import (
	"strings"
	"testing"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr string
	}{
		{
			name: "valid user",
			req:  RegisterRequest{Name: "Ada Lovelace", Email: "ada@example.com", Password: "secret1"},
		},
		{
			name: "valid organizer",
			req:  RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "secret1", Role: RoleOrganizer},
		},
		{
			name:    "short name",
			req:     RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"},
			wantErr: "name must be at least 2 characters",
		},
		{
			name:    "bad email",
			req:     RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "secret1"},
			wantErr: "email must be a valid email address",
		},
		{
			name:    "short password",
			req:     RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "12345"},
			wantErr: "password must be at least 6 characters",
		},
		{
			name:    "admin cannot self register",
			req:     RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1", Role: RoleAdmin},
			wantErr: "role must be one of: user, organizer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, expected to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterRequest_Normalize(t *testing.T) {
	req := RegisterRequest{Name: "  Ada ", Email: " Ada@Example.COM "}
	req.Normalize()

	if req.Name != "Ada" {
		t.Errorf("Name = %q, expected %q", req.Name, "Ada")
	}
	if req.Email != "ada@example.com" {
		t.Errorf("Email = %q, expected lowercased email", req.Email)
	}
	if req.Role != RoleUser {
		t.Errorf("Role = %q, expected default role %q", req.Role, RoleUser)
	}
}

func TestProfileUpdateRequest_Validate(t *testing.T) {
	name := "Grace"
	badEmail := "grace"

	if err := (&ProfileUpdateRequest{}).Validate(); err == nil {
		t.Error("empty profile update should fail")
	}
	if err := (&ProfileUpdateRequest{Name: &name}).Validate(); err != nil {
		t.Errorf("name update should pass, got %v", err)
	}
	if err := (&ProfileUpdateRequest{Email: &badEmail}).Validate(); err == nil {
		t.Error("invalid email should fail")
	}
}

func TestRoleUpdateRequest_Validate(t *testing.T) {
	tests := []struct {
		role    UserRole
		wantErr bool
	}{
		{RoleUser, false},
		{RoleOrganizer, false},
		{RoleAdmin, false},
		{"moderator", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			err := (&RoleUpdateRequest{Role: tt.role}).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_RoleChecks(t *testing.T) {
	tests := []struct {
		role          UserRole
		isAdmin       bool
		isOrganizer   bool
		canCreateEvts bool
	}{
		{RoleUser, false, false, false},
		{RoleOrganizer, false, true, true},
		{RoleAdmin, true, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			u := &User{Role: tt.role}
			if u.IsAdmin() != tt.isAdmin {
				t.Errorf("IsAdmin() = %v, expected %v", u.IsAdmin(), tt.isAdmin)
			}
			if u.IsOrganizer() != tt.isOrganizer {
				t.Errorf("IsOrganizer() = %v, expected %v", u.IsOrganizer(), tt.isOrganizer)
			}
			if u.CanCreateEvents() != tt.canCreateEvts {
				t.Errorf("CanCreateEvents() = %v, expected %v", u.CanCreateEvents(), tt.canCreateEvts)
			}
			if !tt.role.Valid() {
				t.Errorf("role %q should be valid", tt.role)
			}
		})
	}
}
