package permissions

import (
	"net/http"
	"strings"

	"github.com/router-for-me/VisitMappingService/internal/security"
)

// Definition binds a route to the roles that may call it.
type Definition struct {
	Key    string
	Method string
	Path   string
	Roles  []string
}

// Key builds a permission key from method and path.
func Key(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Allowed reports whether authorities may call the route identified by method and path.
// Routes without a definition are refused.
func Allowed(method, path string, authorities []string) bool {
	def, ok := definitionMap[Key(method, path)]
	if !ok {
		return false
	}
	return security.HasAnyRole(authorities, def.Roles...)
}

// Definitions returns a copy of all permission definitions.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// newDefinition builds a Definition with a normalized key.
func newDefinition(method, path string, roles []string) Definition {
	upperMethod := strings.ToUpper(method)
	return Definition{
		Key:    Key(upperMethod, path),
		Method: upperMethod,
		Path:   path,
		Roles:  roles,
	}
}

// definitions is the ordered list of protected routes.
var definitions = []Definition{
	newDefinition(http.MethodPost, "/mapping", security.WriteRoles),
	newDefinition(http.MethodDelete, "/mapping", security.AdminRoles),
	newDefinition(http.MethodGet, "/mapping/legacy-id/:legacyId", security.ReadRoles),
	newDefinition(http.MethodGet, "/mapping/new-id/:newId", security.ReadRoles),
	newDefinition(http.MethodGet, "/mapping/migrated/latest", security.ReadRoles),
	newDefinition(http.MethodGet, "/mapping/migration-id/:migrationId", security.ReadRoles),
	newDefinition(http.MethodGet, "/prison/:prisonId/room/legacy-room-name/:legacyRoomName", security.ReadRoles),

	// Paths used by existing callers of the legacy service.
	newDefinition(http.MethodGet, "/mapping/nomisId/:legacyId", security.ReadRoles),
	newDefinition(http.MethodGet, "/mapping/vsipId/:newId", security.ReadRoles),
	newDefinition(http.MethodGet, "/prison/:prisonId/room/nomis-room-id/:legacyRoomName", security.ReadRoles),
}

// definitionMap indexes definitions by key.
var definitionMap = func() map[string]Definition {
	out := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		out[def.Key] = def
	}
	return out
}()
