package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
)

type gradingFixture struct {
	env        testApp
	assignment models.Assignment
	submission models.Submission
	teacher    models.User
}

func seedGradingFixture(t *testing.T) gradingFixture {
	t.Helper()
	env := setupApp(t)
	subject, class, teacher := seedCatalog(t, env)

	student := models.User{Name: "Mei Lin", Email: "mei@school.test", Role: models.RoleStudent, ClassID: &class.ID}
	require.NoError(t, env.db.Create(&student).Error)
	absent := models.User{Name: "Omar Aziz", Email: "omar@school.test", Role: models.RoleStudent, ClassID: &class.ID}
	require.NoError(t, env.db.Create(&absent).Error)

	assignment := models.Assignment{
		Title:       "Geometry proofs",
		Description: "Prove the theorems from class.",
		SubjectID:   subject.ID,
		ClassID:     class.ID,
		TeacherID:   teacher.ID,
		TotalMarks:  50,
		DueDate:     time.Now().Add(-time.Hour),
		Status:      models.AssignmentStatusPublished,
	}
	require.NoError(t, env.db.Create(&assignment).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		SubmittedAt:  time.Now().Add(-2 * time.Hour),
		Status:       models.SubmissionStatusSubmitted,
	}
	require.NoError(t, env.db.Create(&submission).Error)

	return gradingFixture{env: env, assignment: assignment, submission: submission, teacher: teacher}
}

func TestGradingHandlerGradeFlow(t *testing.T) {
	fx := seedGradingFixture(t)

	body, err := json.Marshal(map[string]interface{}{"marks_obtained": 40, "feedback": "Clean proofs."})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/teacher/submissions/%d/grade", fx.submission.ID)
	req := authed(httptest.NewRequest("POST", path, bytes.NewReader(body)), fx.teacher.ID, models.RoleTeacher)
	resp, err := fx.env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graded struct {
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &graded)
	require.Equal(t, "submission graded", graded.Message)
	require.Equal(t, models.SubmissionStatusGraded, graded.Data.Status)
	require.Equal(t, 40, *graded.Data.MarksObtained)
	require.NotNil(t, graded.Data.Percentage)
	require.InDelta(t, 80.0, *graded.Data.Percentage, 0.01)
}

func TestGradingHandlerMarksBounds(t *testing.T) {
	fx := seedGradingFixture(t)

	body, err := json.Marshal(map[string]interface{}{"marks_obtained": 250})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/teacher/submissions/%d/grade", fx.submission.ID)
	req := authed(httptest.NewRequest("POST", path, bytes.NewReader(body)), fx.teacher.ID, models.RoleTeacher)
	resp, err := fx.env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var failure struct {
		Errors map[string]string `json:"errors"`
	}
	decodeResponse(t, resp, &failure)
	require.Equal(t, "Marks must be between 0 and 50", failure.Errors["marksObtained"])
}

func TestGradingHandlerListAndNonSubmitters(t *testing.T) {
	fx := seedGradingFixture(t)

	listPath := fmt.Sprintf("/api/v1/teacher/assignments/%d/submissions", fx.assignment.ID)
	listReq := authed(httptest.NewRequest("GET", listPath, nil), fx.teacher.ID, models.RoleTeacher)
	listResp, err := fx.env.app.Test(listReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	var listing struct {
		Data dto.SubmissionListResponse `json:"data"`
	}
	decodeResponse(t, listResp, &listing)
	require.Len(t, listing.Data.Items, 1)

	// The composed-query key spelling filters too.
	lateReq := authed(httptest.NewRequest("GET", listPath+"?isLate=true", nil), fx.teacher.ID, models.RoleTeacher)
	lateResp, err := fx.env.app.Test(lateReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, lateResp.StatusCode)

	var lateListing struct {
		Data dto.SubmissionListResponse `json:"data"`
	}
	decodeResponse(t, lateResp, &lateListing)
	require.Empty(t, lateListing.Data.Items)

	missingPath := fmt.Sprintf("/api/v1/teacher/assignments/%d/non-submitters", fx.assignment.ID)
	missingReq := authed(httptest.NewRequest("GET", missingPath, nil), fx.teacher.ID, models.RoleTeacher)
	missingResp, err := fx.env.app.Test(missingReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, missingResp.StatusCode)

	var missing struct {
		Data []dto.UserLite `json:"data"`
	}
	decodeResponse(t, missingResp, &missing)
	require.Len(t, missing.Data, 1)
	require.Equal(t, "Omar Aziz", missing.Data[0].Name)
}

func TestGradingHandlerAnalytics(t *testing.T) {
	fx := seedGradingFixture(t)

	req := authed(httptest.NewRequest("GET", "/api/v1/teacher/analytics", nil), fx.teacher.ID, models.RoleTeacher)
	resp, err := fx.env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var overview struct {
		Data dto.TeacherAnalyticsResponse `json:"data"`
	}
	decodeResponse(t, resp, &overview)
	require.Equal(t, int64(1), overview.Data.TotalAssignments)
	require.Equal(t, int64(1), overview.Data.Expired)
}

func TestGradingHandlerOtherTeacherForbidden(t *testing.T) {
	fx := seedGradingFixture(t)

	other := models.User{Name: "Another Teacher", Email: "other@school.test", Role: models.RoleTeacher}
	require.NoError(t, fx.env.db.Create(&other).Error)

	body, err := json.Marshal(map[string]interface{}{"marks_obtained": 10})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/teacher/submissions/%d/grade", fx.submission.ID)
	req := authed(httptest.NewRequest("POST", path, bytes.NewReader(body)), other.ID, models.RoleTeacher)
	resp, err := fx.env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
