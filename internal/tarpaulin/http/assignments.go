package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/pkg/httpx"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

// maxSubmissionBytes caps uploaded submission files.
const maxSubmissionBytes = 16 << 20

type AssignmentsHandler struct {
	Assignments *service.AssignmentService
	Submissions *service.SubmissionService
	Authorize   *service.AuthorizeService
	Validate    *validator.Validate
}

type assignmentResponse struct {
	ID       string    `json:"id"`
	CourseID string    `json:"courseId"`
	Title    string    `json:"title"`
	Points   int       `json:"points"`
	Due      time.Time `json:"due"`
}

func toAssignmentResponse(a domain.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:       a.ID,
		CourseID: a.CourseID,
		Title:    a.Title,
		Points:   a.Points,
		Due:      a.Due,
	}
}

type createAssignmentRequest struct {
	CourseID string    `json:"courseId" validate:"required"`
	Title    string    `json:"title" validate:"required,max=255"`
	Points   int       `json:"points" validate:"gte=0"`
	Due      time.Time `json:"due" validate:"required"`
}

func (h *AssignmentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionCreateAssignment, domain.ResourceRef{CourseID: req.CourseID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	assignmentID, err := h.Assignments.Create(r.Context(), domain.Assignment{
		CourseID: req.CourseID,
		Title:    req.Title,
		Points:   req.Points,
		Due:      req.Due,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": assignmentID})
}

func (h *AssignmentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	assignment, err := h.Assignments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

type updateAssignmentRequest struct {
	Title  *string    `json:"title" validate:"omitempty,max=255"`
	Points *int       `json:"points" validate:"omitempty,gte=0"`
	Due    *time.Time `json:"due"`
}

func (h *AssignmentsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	assignmentID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionUpdateAssignment, domain.ResourceRef{AssignmentID: assignmentID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	var req updateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && req.Points == nil && req.Due == nil {
		httpx.WriteError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	err := h.Assignments.Update(r.Context(), assignmentID, domain.AssignmentUpdate{
		Title:  req.Title,
		Points: req.Points,
		Due:    req.Due,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AssignmentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	assignmentID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionDeleteAssignment, domain.ResourceRef{AssignmentID: assignmentID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	if err := h.Assignments.Delete(r.Context(), assignmentID); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type submissionResponse struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignmentId"`
	StudentID    string    `json:"studentId"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Grade        *float64  `json:"grade,omitempty"`
	File         string    `json:"file"`
}

func toSubmissionResponse(s domain.Submission) submissionResponse {
	return submissionResponse{
		ID:           s.ID,
		AssignmentID: s.AssignmentID,
		StudentID:    s.StudentID,
		SubmittedAt:  s.SubmittedAt,
		Grade:        s.Grade,
		File:         fmt.Sprintf("/v1/submissions/%s/file", s.ID),
	}
}

type submissionPageResponse struct {
	Submissions []submissionResponse `json:"submissions"`
	Page        int                  `json:"page"`
	TotalPages  int                  `json:"totalPages"`
	PageSize    int                  `json:"pageSize"`
	TotalCount  int                  `json:"totalCount"`
}

// HandleListSubmissions returns one page of an assignment's submissions.
func (h *AssignmentsHandler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	assignmentID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionListSubmissions, domain.ResourceRef{AssignmentID: assignmentID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := h.Assignments.ListSubmissions(r.Context(), assignmentID, page)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	resp := submissionPageResponse{
		Submissions: make([]submissionResponse, 0, len(result.Submissions)),
		Page:        result.Page,
		TotalPages:  result.TotalPages,
		PageSize:    result.PageSize,
		TotalCount:  result.TotalCount,
	}
	for _, s := range result.Submissions {
		resp.Submissions = append(resp.Submissions, toSubmissionResponse(s))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreateSubmission accepts a multipart upload for an assignment.
// The file goes in the "file" form field.
func (h *AssignmentsHandler) HandleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	assignmentID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionCreateSubmission, domain.ResourceRef{AssignmentID: assignmentID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "unreadable file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	submissionID, err := h.Submissions.Create(r.Context(), assignmentID, identity.ID, header.Filename, contentType, data)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":   submissionID,
		"file": fmt.Sprintf("/v1/submissions/%s/file", submissionID),
	})
}
