package permissions

import (
	"net/http"
	"testing"

	"github.com/router-for-me/VisitMappingService/internal/security"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		name        string
		method      string
		path        string
		authorities []string
		want        bool
	}{
		{"read role reads", http.MethodGet, "/mapping/new-id/:newId", []string{security.RoleRead}, true},
		{"read role cannot create", http.MethodPost, "/mapping", []string{security.RoleRead}, false},
		{"update role creates", http.MethodPost, "/mapping", []string{security.RoleUpdate}, true},
		{"update role cannot delete", http.MethodDelete, "/mapping", []string{security.RoleUpdate}, false},
		{"admin role deletes", http.MethodDelete, "/mapping", []string{security.RoleAdmin}, true},
		{"nomis visits role deletes", http.MethodDelete, "/mapping", []string{security.RoleNomisVisits}, true},
		{"legacy alias readable", http.MethodGet, "/mapping/nomisId/:legacyId", []string{security.RoleRead}, true},
		{"unknown route refused", http.MethodGet, "/other", []string{security.RoleNomisVisits}, false},
		{"no roles refused", http.MethodGet, "/mapping/migrated/latest", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allowed(tc.method, tc.path, tc.authorities); got != tc.want {
				t.Fatalf("Allowed(%s %s, %v) = %v, want %v", tc.method, tc.path, tc.authorities, got, tc.want)
			}
		})
	}
}

func TestDefinitionsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for _, def := range Definitions() {
		if _, ok := seen[def.Key]; ok {
			t.Fatalf("duplicate definition %s", def.Key)
		}
		seen[def.Key] = struct{}{}
		if len(def.Roles) == 0 {
			t.Fatalf("definition %s has no roles", def.Key)
		}
	}
}
