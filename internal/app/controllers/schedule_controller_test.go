package controllers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unisphere-scheduler/internal/app/controllers"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/app/models/dto"
	"github.com/yigit/unisphere-scheduler/internal/app/routes"
	"github.com/yigit/unisphere-scheduler/internal/middleware"
	"github.com/yigit/unisphere-scheduler/internal/pkg/apperrors"
	"github.com/yigit/unisphere-scheduler/internal/pkg/auth"
)

type stubSchedulingService struct {
	generated []dto.GenerateScheduleRequest
	result    *dto.RunResult
	err       error
}

func (s *stubSchedulingService) Generate(_ context.Context, req dto.GenerateScheduleRequest) (*dto.RunResult, error) {
	s.generated = append(s.generated, req)
	return s.result, s.err
}

func (s *stubSchedulingService) ClearSchedule(_ context.Context, req dto.ClearScheduleRequest) (*dto.ClearScheduleResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ClearScheduleResponse{Semester: models.Term(strings.ToUpper(req.Semester)), Year: req.Year}, nil
}

func (s *stubSchedulingService) GetInfo(_ context.Context, semester string, year int) (*dto.ScheduleInfoResponse, error) {
	info := &dto.ScheduleInfoResponse{TotalSections: 12, TotalClassrooms: 4, TotalInstructors: 6, TimeSlots: 130}
	if semester != "" {
		n := int64(year - 2000)
		info.ScheduledAssignments = &n
	}
	return info, nil
}

func (s *stubSchedulingService) GetSchedule(_ context.Context, semester string, year, page, size int) (*dto.PaginatedResponse, error) {
	if semester == "" {
		return nil, fmt.Errorf("%w: unknown semester", apperrors.ErrInvalidTerm)
	}
	return &dto.PaginatedResponse{Items: []dto.ScheduledSectionResponse{}, Pagination: dto.PaginationInfo{CurrentPage: page, PageSize: size}}, nil
}

type harness struct {
	router *gin.Engine
	svc    *stubSchedulingService
	admin  string
	staff  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour})
	svc := &stubSchedulingService{result: &dto.RunResult{
		Success:     true,
		RunID:       uuid.New(),
		State:       "partially_succeeded",
		Assignments: []dto.AssignmentResponse{{SectionID: 1, CourseCode: "CS101", ClassroomID: 2, TimeSlot: "MON 09:00-10:00"}},
		Unassigned:  []dto.UnassignedResponse{{SectionID: 2, Section: "PHYS201-02", Reason: "classroom_conflict"}},
	}}

	router := gin.New()
	routes.SetupRouter(router, controllers.NewScheduleController(svc), middleware.NewAuthMiddleware(jwtService),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	admin, err := jwtService.GenerateAccessToken(1, "registrar@uni.edu", models.RoleAdmin)
	require.NoError(t, err)
	staff, err := jwtService.GenerateAccessToken(2, "prof@uni.edu", models.RoleInstructor)
	require.NoError(t, err)

	return &harness{router: router, svc: svc, admin: admin, staff: staff}
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateSchedule(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/v1/schedule/generate", h.admin, `{"semester":"Fall","year":2026,"preview_only":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Schedule generated with conflicts", body.Message)
	assert.Equal(t, true, body.Data["success"])
	assert.Contains(t, body.Data, "statistics")
	assignments := body.Data["assignments"].([]any)
	assert.Equal(t, "MON 09:00-10:00", assignments[0].(map[string]any)["time_slot"])
	unassigned := body.Data["unassigned"].([]any)
	assert.Equal(t, "classroom_conflict", unassigned[0].(map[string]any)["reason"])

	require.Len(t, h.svc.generated, 1)
	assert.True(t, h.svc.generated[0].PreviewOnly)
}

func TestGenerateSchedule_Rejections(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/v1/schedule/generate", "", `{"semester":"Fall","year":2026}`).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/v1/schedule/generate", h.staff, `{"semester":"Fall","year":2026}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/v1/schedule/generate", h.admin, `{"semester":"Winter","year":2026}`).Code)
	assert.Empty(t, h.svc.generated, "invalid requests never reach the service")

	h.svc.err = fmt.Errorf("%w: FALL 2026", apperrors.ErrScheduleRunInProgress)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/v1/schedule/generate", h.admin, `{"semester":"Fall","year":2026}`).Code)

	h.svc.err = fmt.Errorf("%w: %w", apperrors.ErrScheduleCommitFailed, fmt.Errorf("tx aborted"))
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/v1/schedule/generate", h.admin, `{"semester":"Fall","year":2026}`).Code)
}

func TestClearSchedule(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodDelete, "/api/v1/schedule", h.admin, `{"semester":"spring","year":2026}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"semester":"SPRING"`)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/api/v1/schedule", h.staff, `{"semester":"spring","year":2026}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodDelete, "/api/v1/schedule", h.admin, `{"year":2026}`).Code)
}

func TestGetScheduleInfo(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/schedule/info", h.staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12.0, body.Data["totalSections"])
	assert.Equal(t, 4.0, body.Data["totalClassrooms"])
	assert.Equal(t, 6.0, body.Data["totalInstructors"])
	assert.Equal(t, 130.0, body.Data["timeSlots"])
	assert.NotContains(t, body.Data, "scheduledAssignments")

	rec = h.do(http.MethodGet, "/api/v1/schedule/info?semester=FALL&year=2026", h.staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scheduledAssignments":26`)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/schedule/info?year=abc", h.staff, "").Code)
}

func TestGetSchedule(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/schedule?semester=FALL&year=2026&page=2&size=5", h.staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"currentPage":2`)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/schedule?year=2026", h.staff, "").Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/health", "", "").Code)
}
