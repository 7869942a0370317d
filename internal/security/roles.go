package security

import (
	"sort"
	"strings"
)

const (
	// RoleNomisVisits grants every operation.
	RoleNomisVisits = "ROLE_NOMIS_VISITS"
	RoleRead        = "ROLE_READ_MAPPING"
	RoleUpdate      = "ROLE_UPDATE_MAPPING"
	RoleAdmin       = "ROLE_ADMIN_MAPPING"
)

var (
	// ReadRoles may call the lookup endpoints.
	ReadRoles = []string{RoleNomisVisits, RoleRead, RoleUpdate, RoleAdmin}
	// WriteRoles may create mappings.
	WriteRoles = []string{RoleNomisVisits, RoleUpdate, RoleAdmin}
	// AdminRoles may delete mappings.
	AdminRoles = []string{RoleNomisVisits, RoleAdmin}
)

// NormalizeRoles trims, upper-cases, de-duplicates, and sorts roles.
func NormalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(roles))
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		trimmed := strings.ToUpper(strings.TrimSpace(role))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	sort.Strings(normalized)
	return normalized
}

// ParseRoles splits a comma separated role list.
func ParseRoles(raw string) []string {
	return NormalizeRoles(strings.Split(raw, ","))
}

// HasAnyRole reports whether granted contains at least one of accepted.
func HasAnyRole(granted []string, accepted ...string) bool {
	for _, want := range accepted {
		for _, have := range granted {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return true
			}
		}
	}
	return false
}
