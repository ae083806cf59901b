package model

import "strings"

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleManager     Role = "MANAGER"
	RoleConsultant  Role = "CONSULTANT"
	RoleCoordinator Role = "COORDINATOR"
	RoleDriver      Role = "DRIVER"
	RoleAccountant  Role = "ACCOUNTANT"
)

// ParseRole accepts both bare role names and Spring authorities ("ROLE_ADMIN").
func ParseRole(raw string) Role {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	return Role(strings.TrimPrefix(raw, "ROLE_"))
}

// PrimaryRole picks the most privileged role from a token's role list.
func PrimaryRole(roles []string) Role {
	order := []Role{RoleAdmin, RoleManager, RoleCoordinator, RoleConsultant, RoleAccountant, RoleDriver}
	have := make(map[Role]bool, len(roles))
	for _, r := range roles {
		have[ParseRole(r)] = true
	}
	for _, r := range order {
		if have[r] {
			return r
		}
	}
	return ""
}

func (r Role) IsConsultant() bool {
	return r == RoleConsultant
}
