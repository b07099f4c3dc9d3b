package http

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/httpx"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

type CoursesHandler struct {
	Courses     *service.CourseService
	Assignments *service.AssignmentService
	Authorize   *service.AuthorizeService
	Validate    *validator.Validate
}

type courseResponse struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	Number       string `json:"number"`
	Title        string `json:"title"`
	Term         string `json:"term"`
	InstructorID string `json:"instructorId"`
}

func toCourseResponse(c domain.Course) courseResponse {
	return courseResponse{
		ID:           c.ID,
		Subject:      c.Subject,
		Number:       c.Number,
		Title:        c.Title,
		Term:         c.Term,
		InstructorID: c.InstructorID,
	}
}

type coursePageResponse struct {
	Courses    []courseResponse `json:"courses"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	PageSize   int              `json:"pageSize"`
	TotalCount int              `json:"totalCount"`
}

// HandleList returns one page of the public course catalog.
func (h *CoursesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	filter := store.CourseFilter{
		Subject: q.Get("subject"),
		Number:  q.Get("number"),
		Term:    q.Get("term"),
	}

	result, err := h.Courses.List(r.Context(), filter, page)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	resp := coursePageResponse{
		Courses:    make([]courseResponse, 0, len(result.Courses)),
		Page:       result.Page,
		TotalPages: result.TotalPages,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
	}
	for _, c := range result.Courses {
		resp.Courses = append(resp.Courses, toCourseResponse(c))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

type createCourseRequest struct {
	Subject      string `json:"subject" validate:"required,max=32"`
	Number       string `json:"number" validate:"required,max=16"`
	Title        string `json:"title" validate:"required,max=255"`
	Term         string `json:"term" validate:"required,max=32"`
	InstructorID string `json:"instructorId" validate:"required"`
}

func (h *CoursesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionCreateCourse, domain.ResourceRef{}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	courseID, err := h.Courses.Create(r.Context(), domain.Course{
		Subject:      req.Subject,
		Number:       req.Number,
		Title:        req.Title,
		Term:         req.Term,
		InstructorID: req.InstructorID,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": courseID})
}

func (h *CoursesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	course, err := h.Courses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCourseResponse(course))
}

type updateCourseRequest struct {
	Subject      *string `json:"subject" validate:"omitempty,max=32"`
	Number       *string `json:"number" validate:"omitempty,max=16"`
	Title        *string `json:"title" validate:"omitempty,max=255"`
	Term         *string `json:"term" validate:"omitempty,max=32"`
	InstructorID *string `json:"instructorId" validate:"omitempty,min=1"`
}

func (h *CoursesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	courseID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionUpdateCourse, domain.ResourceRef{CourseID: courseID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	var req updateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject == nil && req.Number == nil && req.Title == nil && req.Term == nil && req.InstructorID == nil {
		httpx.WriteError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	err := h.Courses.Update(r.Context(), courseID, domain.CourseUpdate{
		Subject:      req.Subject,
		Number:       req.Number,
		Title:        req.Title,
		Term:         req.Term,
		InstructorID: req.InstructorID,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CoursesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	courseID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionDeleteCourse, domain.ResourceRef{CourseID: courseID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	if err := h.Courses.Delete(r.Context(), courseID); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStudents returns the IDs of students enrolled in a course.
func (h *CoursesHandler) HandleStudents(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	courseID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionViewRoster, domain.ResourceRef{CourseID: courseID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	course, err := h.Courses.Get(r.Context(), courseID)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	students := course.Students
	if students == nil {
		students = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]string{"students": students})
}

type updateEnrollmentRequest struct {
	Add    []string `json:"add" validate:"omitempty,dive,required"`
	Remove []string `json:"remove" validate:"omitempty,dive,required"`
}

// HandleUpdateEnrollment adds and removes students in one shot. Removals
// are applied before additions.
func (h *CoursesHandler) HandleUpdateEnrollment(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	courseID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionUpdateCourse, domain.ResourceRef{CourseID: courseID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	var req updateEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Add) == 0 && len(req.Remove) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "nothing to change")
		return
	}

	if err := h.Courses.UpdateEnrollment(r.Context(), courseID, req.Add, req.Remove); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRoster streams the enrolled students as CSV, one row per student
// with id, name and email columns.
func (h *CoursesHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	courseID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionViewRoster, domain.ResourceRef{CourseID: courseID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	roster, err := h.Courses.Roster(r.Context(), courseID)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="roster.csv"`)
	cw := csv.NewWriter(w)
	for _, s := range roster {
		if err := cw.Write([]string{s.ID, s.Name, s.Email}); err != nil {
			slogx.FromContext(r.Context()).Error("write roster row", "err", err)
			return
		}
	}
	cw.Flush()
}

// HandleAssignments lists the IDs of a course's assignments.
func (h *CoursesHandler) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Assignments.ListByCourse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]string{"assignments": ids})
}
