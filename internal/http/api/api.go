package api

import (
	"github.com/gin-gonic/gin"
	"github.com/router-for-me/VisitMappingService/internal/config"
	"github.com/router-for-me/VisitMappingService/internal/http/api/handlers"
	"github.com/router-for-me/VisitMappingService/internal/http/api/permissions"
	"github.com/router-for-me/VisitMappingService/internal/logging"
	"github.com/router-for-me/VisitMappingService/internal/mapping"
	"github.com/router-for-me/VisitMappingService/internal/ratelimit"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterRoutes registers the mapping routes, middleware, and handlers.
// limiter may be nil to disable rate limiting.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc *mapping.Service, jwtCfg config.JWTConfig, limiter *ratelimit.Manager) {
	if r == nil || db == nil || svc == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authed := r.Group("")
	authed.Use(authMiddleware(jwtCfg))
	authed.Use(rateLimitMiddleware(limiter))
	authed.Use(permissionMiddleware())

	visitHandler := handlers.NewVisitMappingHandler(svc)
	authed.POST("/mapping", visitHandler.Create)
	authed.DELETE("/mapping", visitHandler.Delete)
	authed.GET("/mapping/legacy-id/:legacyId", visitHandler.GetByLegacyID)
	authed.GET("/mapping/new-id/:newId", visitHandler.GetByNewID)
	authed.GET("/mapping/migrated/latest", visitHandler.GetLatestMigrated)
	authed.GET("/mapping/migration-id/:migrationId", visitHandler.ListByMigrationID)

	roomHandler := handlers.NewRoomMappingHandler(svc)
	authed.GET("/prison/:prisonId/room/legacy-room-name/:legacyRoomName", roomHandler.Get)

	// Paths used by existing callers of the legacy service.
	authed.GET("/mapping/nomisId/:legacyId", visitHandler.GetByLegacyID)
	authed.GET("/mapping/vsipId/:newId", visitHandler.GetByNewID)
	authed.GET("/prison/:prisonId/room/nomis-room-id/:legacyRoomName", roomHandler.Get)

	for _, route := range undefinedRoutes(r.Routes()) {
		log.WithField("route", route).Error("route has no permission definition and will refuse every caller")
	}
}

// undefinedRoutes lists registered routes, other than public ones, missing from the permission table.
func undefinedRoutes(routes gin.RoutesInfo) []string {
	defined := make(map[string]struct{})
	for _, def := range permissions.Definitions() {
		defined[def.Key] = struct{}{}
	}
	var missing []string
	for _, route := range routes {
		if _, public := publicRoutes[route.Path]; public {
			continue
		}
		key := permissions.Key(route.Method, route.Path)
		if _, ok := defined[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

var publicRoutes = map[string]struct{}{
	"/healthz": {},
}

// NewEngine builds a gin engine with recovery and request logging installed.
func NewEngine(debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.RequestLogger())
	return engine
}
