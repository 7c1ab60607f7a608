package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-calculator-api/internal/models"
	"github.com/noah-isme/grade-calculator-api/internal/service"
	appErrors "github.com/noah-isme/grade-calculator-api/pkg/errors"
)

type staticTokens map[string]*models.JWTClaims

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newGradeRouter(authRequired bool) (*gin.Engine, *fakeGradeSrv) {
	gin.SetMode(gin.TestMode)
	srv := &fakeGradeSrv{}
	tokens := staticTokens{
		"teacher-token": {UserID: "t-1", Role: models.RoleTeacher},
		"student-token": {UserID: "s-1", Role: models.RoleStudent},
	}
	r := gin.New()
	GradeRoutes{Grades: NewGradeHandler(srv), Tokens: tokens, AuthRequired: authRequired}.Register(r.Group("/api/v1"))
	return r, srv
}

func doRequest(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGradeRoutesPurgeRequiresTeacher(t *testing.T) {
	r, srv := newGradeRouter(false)

	rec := doRequest(r, http.MethodDelete, "/api/v1/grades/cache", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(r, http.MethodDelete, "/api/v1/grades/cache", "student-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, srv.purged)

	rec = doRequest(r, http.MethodDelete, "/api/v1/grades/cache", "teacher-token", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, srv.purged)
}

func TestGradeRoutesAuthRequired(t *testing.T) {
	r, _ := newGradeRouter(true)

	rec := doRequest(r, http.MethodPost, "/api/v1/grades/calculate", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(r, http.MethodPost, "/api/v1/grades/calculate", "bogus", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGradeRoutesEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewGradeService(nil, nil, nil, nil, nil, nil, service.GradeServiceConfig{})
	r := gin.New()
	GradeRoutes{Grades: NewGradeHandler(svc)}.Register(r.Group("/api/v1"))

	body := `{
		"apply_group_weights": true,
		"only_graded": true,
		"assignment_groups": [
			{"id": "hw", "weight": 60, "rules": {"drop_lowest": 1}, "assignments": [
				{"id": "hw1", "points_possible": 100, "submission": {"score": 60, "posted_at": "2024-09-01T08:00:00Z"}},
				{"id": "hw2", "points_possible": 100, "submission": {"score": 80, "posted_at": "2024-09-01T08:00:00Z"}},
				{"id": "hw3", "points_possible": 100, "submission": {"score": 80, "posted_at": "2024-09-01T08:00:00Z"}}
			]},
			{"id": "exam", "weight": 40, "assignments": [
				{"id": "ex1", "points_possible": 100, "submission": {"score": 90, "posted_at": "2024-09-01T08:00:00Z"}}
			]}
		]
	}`
	rec := doRequest(r, http.MethodPost, "/api/v1/grades/calculate", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.InDelta(t, 84.0, envelope.Data["percentage"].(float64), 1e-9)
	assert.Equal(t, "CURRENT", envelope.Data["mode"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}
