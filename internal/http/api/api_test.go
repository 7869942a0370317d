package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/VisitMappingService/internal/config"
	"github.com/router-for-me/VisitMappingService/internal/db/dbtest"
	"github.com/router-for-me/VisitMappingService/internal/http/api/handlers"
	"github.com/router-for-me/VisitMappingService/internal/mapping"
	"github.com/router-for-me/VisitMappingService/internal/ratelimit"
	"github.com/router-for-me/VisitMappingService/internal/security"
	"github.com/router-for-me/VisitMappingService/internal/store"
)

const testSecret = "test-secret"

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, limiter *ratelimit.Manager) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := dbtest.Open(t)
	current := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	svc := mapping.NewService(store.NewGormVisitStore(conn), store.NewGormRoomStore(conn), mapping.WithClock(clock))

	r := gin.New()
	RegisterRoutes(r, conn, svc, config.JWTConfig{Secret: testSecret}, limiter)
	return &testServer{t: t, engine: r}
}

func (s *testServer) token(subject string, roles ...string) string {
	s.t.Helper()
	token, err := security.IssueToken(testSecret, subject, roles, time.Hour, time.Now())
	if err != nil {
		s.t.Fatalf("issue token: %v", err)
	}
	return token
}

func (s *testServer) do(method, target, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(token string, legacyID int64, newID, label, mappingType string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/mapping", token, map[string]any{
		"legacyId":    legacyID,
		"newId":       newID,
		"label":       label,
		"mappingType": mappingType,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create %d: expected 201, got %d: %s", legacyID, w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

type visitBody struct {
	LegacyID    int64     `json:"legacyId"`
	NewID       string    `json:"newId"`
	Label       string    `json:"label"`
	MappingType string    `json:"mappingType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func TestCreateAndLookup(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token("sync-service", security.RoleNomisVisits)

	s.create(token, 1234, "12345678", "2022-01-01T00:00:00", "ONLINE")

	for _, target := range []string{"/mapping/legacy-id/1234", "/mapping/new-id/12345678"} {
		w := s.do(http.MethodGet, target, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", target, w.Code, w.Body.String())
		}
		got := decode[visitBody](t, w)
		if got.LegacyID != 1234 || got.NewID != "12345678" || got.Label != "2022-01-01T00:00:00" || got.MappingType != "ONLINE" {
			t.Fatalf("%s: unexpected body %+v", target, got)
		}
		if got.CreatedAt.IsZero() {
			t.Fatalf("%s: expected createdAt", target)
		}
	}
}

func TestCreate_Rejections(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token("sync-service", security.RoleUpdate)
	s.create(token, 1234, "12345678", "", "ONLINE")

	cases := []struct {
		name    string
		body    any
		message string
	}{
		{
			name:    "duplicate legacy id",
			body:    map[string]any{"legacyId": 1234, "newId": "other", "mappingType": "ONLINE"},
			message: "Validation failure: legacy visit id = 1234 already exists",
		},
		{
			name:    "duplicate new id",
			body:    map[string]any{"legacyId": 99, "newId": "12345678", "mappingType": "ONLINE"},
			message: "Validation failure: new visit id = 12345678 already exists",
		},
		{
			name:    "missing legacy id",
			body:    map[string]any{"newId": "x", "mappingType": "ONLINE"},
			message: "Validation failure: legacy visit id is required",
		},
		{
			name:    "invalid json",
			body:    "not an object",
			message: "Validation failure: invalid json",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/mapping", token, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			got := decode[handlers.ErrorResponse](t, w)
			if got.Status != http.StatusBadRequest || got.UserMessage != tc.message {
				t.Fatalf("unexpected error body %+v", got)
			}
		})
	}

	w := s.do(http.MethodPost, "/mapping", token, map[string]any{"legacyId": 5, "newId": "x", "mappingType": "BATCH"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mapping type, got %d", w.Code)
	}
}

func TestLookups_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token("ui", security.RoleRead)

	cases := map[string]string{
		"/mapping/legacy-id/765":                          "Not Found: legacy visit id=765",
		"/mapping/new-id/NOT_THERE":                       "Not Found: new visit id=NOT_THERE",
		"/mapping/migrated/latest":                        "Not Found: no migrated visit mappings exist",
		"/prison/HEI/room/legacy-room-name/HEI-NOT_THERE": "Not Found: prison id=HEI, legacy room name=HEI-NOT_THERE",
	}
	for target, message := range cases {
		w := s.do(http.MethodGet, target, token, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d: %s", target, w.Code, w.Body.String())
		}
		if got := decode[handlers.ErrorResponse](t, w); got.UserMessage != message || got.Status != http.StatusNotFound {
			t.Fatalf("%s: unexpected error body %+v", target, got)
		}
	}

	w := s.do(http.MethodGet, "/mapping/legacy-id/abc", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric legacy id, got %d", w.Code)
	}
}

func TestRoomLookup(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/prison/HEI/room/legacy-room-name/HEI-VISITS-SOC_VIS", s.token("ui", security.RoleRead), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[map[string]any](t, w)
	if got["prisonId"] != "HEI" || got["legacyRoomName"] != "HEI-VISITS-SOC_VIS" || got["newRoomId"] != "VSIP_SOC_VIS" || got["isOpen"] != true {
		t.Fatalf("unexpected room body %v", got)
	}
}

func TestLatestMigrated(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token("sync-service", security.RoleNomisVisits)
	s.create(token, 5, "five", "2022-01-01T00:00:00", "MIGRATED")
	s.create(token, 6, "six", "2022-01-01T00:00:00", "MIGRATED")
	s.create(token, 7, "seven", "", "ONLINE")

	w := s.do(http.MethodGet, "/mapping/migrated/latest", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[visitBody](t, w); got.LegacyID != 6 {
		t.Fatalf("expected latest migrated legacy id 6, got %+v", got)
	}
}

func TestListByMigrationID(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token("sync-service", security.RoleNomisVisits)
	for i := int64(1); i <= 5; i++ {
		s.create(token, i, "run-a-"+strconv.FormatInt(i, 10), "run-a", "MIGRATED")
	}
	s.create(token, 10, "run-b-10", "run-b", "MIGRATED")
	s.create(token, 11, "online-11", "run-a", "ONLINE")

	w := s.do(http.MethodGet, "/mapping/migration-id/run-a?page=1&size=2&sort=legacyId,desc", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	page := decode[mapping.Page[visitBody]](t, w)
	if page.TotalElements != 5 || page.TotalPages != 3 || page.Number != 1 || page.Size != 2 || page.NumberOfElements != 2 {
		t.Fatalf("unexpected page metadata %+v", page)
	}
	if page.Content[0].LegacyID != 3 || page.Content[1].LegacyID != 2 {
		t.Fatalf("unexpected page content %+v", page.Content)
	}

	w = s.do(http.MethodGet, "/mapping/migration-id/unknown", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown label, got %d", w.Code)
	}
	empty := decode[mapping.Page[visitBody]](t, w)
	if empty.TotalElements != 0 || len(empty.Content) != 0 || empty.Size != mapping.DefaultPageSize {
		t.Fatalf("unexpected empty page %+v", empty)
	}

	for _, query := range []string{"size=0", "page=-1", "sort=nomisId,asc", "page=x", "page=4611686018427387904&size=2"} {
		if w := s.do(http.MethodGet, "/mapping/migration-id/run-a?"+query, token, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, w.Code)
		}
	}
}

func TestDelete(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token("sync-service", security.RoleNomisVisits)
	s.create(token, 1, "m1", "run", "MIGRATED")
	s.create(token, 2, "o2", "", "ONLINE")

	if w := s.do(http.MethodDelete, "/mapping?onlyMigrated=maybe", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid flag, got %d", w.Code)
	}

	if w := s.do(http.MethodDelete, "/mapping?onlyMigrated=true", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/mapping/legacy-id/1", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected migrated mapping removed, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/mapping/legacy-id/2", token, nil); w.Code != http.StatusOK {
		t.Fatalf("expected online mapping kept, got %d", w.Code)
	}

	if w := s.do(http.MethodDelete, "/mapping", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/mapping/legacy-id/2", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected all mappings removed, got %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/mapping", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 when nothing to delete, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/prison/HEI/room/legacy-room-name/HEI-VISITS-SOC_VIS", token, nil); w.Code != http.StatusOK {
		t.Fatalf("expected room mappings untouched, got %d", w.Code)
	}
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t, nil)

	if w := s.do(http.MethodGet, "/mapping/migrated/latest", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/mapping/migrated/latest", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", w.Code)
	}

	readOnly := s.token("ui", security.RoleRead)
	w := s.do(http.MethodPost, "/mapping", readOnly, map[string]any{"legacyId": 1, "newId": "x", "mappingType": "ONLINE"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for read role create, got %d", w.Code)
	}
	if got := decode[handlers.ErrorResponse](t, w); got.Status != http.StatusForbidden {
		t.Fatalf("unexpected error body %+v", got)
	}

	update := s.token("sync", security.RoleUpdate)
	if w := s.do(http.MethodDelete, "/mapping", update, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for update role delete, got %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/mapping", s.token("ops", security.RoleAdmin), nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin delete, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/mapping/migrated/latest", s.token("nobody"), nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without roles, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[map[string]string](t, w); got["status"] != "UP" {
		t.Fatalf("unexpected health body %v", got)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsConfig{Limit: 1}), func() time.Time {
		return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	}, nil)
	s := newTestServer(t, limiter)

	first := s.token("busy", security.RoleRead)
	if w := s.do(http.MethodGet, "/mapping/migrated/latest", first, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected first request through, got %d", w.Code)
	}
	w := s.do(http.MethodGet, "/mapping/migrated/latest", first, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "1" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected rate limit headers %v", w.Header())
	}
	if got := decode[handlers.ErrorResponse](t, w); got.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected error body %+v", got)
	}

	if w := s.do(http.MethodGet, "/mapping/migrated/latest", s.token("quiet", security.RoleRead), nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected other caller unaffected, got %d", w.Code)
	}
}

func TestLegacyPathAliases(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token("sync-service", security.RoleNomisVisits)
	s.create(token, 1234, "12345678", "", "ONLINE")

	for _, target := range []string{"/mapping/nomisId/1234", "/mapping/vsipId/12345678"} {
		w := s.do(http.MethodGet, target, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", target, w.Code, w.Body.String())
		}
		if got := decode[visitBody](t, w); got.LegacyID != 1234 || got.NewID != "12345678" {
			t.Fatalf("%s: unexpected body %+v", target, got)
		}
	}

	w := s.do(http.MethodGet, "/prison/HEI/room/nomis-room-id/HEI-VISITS-SOC_VIS", s.token("ui", security.RoleRead), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for room alias, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/mapping/nomisId/1234", s.token("nobody"), nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected aliases to keep role checks, got %d", w.Code)
	}
}

func TestEveryProtectedRouteHasPermission(t *testing.T) {
	s := newTestServer(t, nil)
	if missing := undefinedRoutes(s.engine.Routes()); len(missing) != 0 {
		t.Fatalf("routes without permission definitions: %v", missing)
	}

	extra := gin.RoutesInfo{{Method: http.MethodPut, Path: "/mapping"}, {Method: http.MethodGet, Path: "/healthz"}}
	if missing := undefinedRoutes(extra); len(missing) != 1 || missing[0] != "PUT /mapping" {
		t.Fatalf("expected only PUT /mapping reported, got %v", missing)
	}
}
