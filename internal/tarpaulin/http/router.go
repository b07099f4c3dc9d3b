package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/httpx"
	"github.com/opencourse/tarpaulin/pkg/ratelimit"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	logger       *slog.Logger
	buildVersion string
	startTime    time.Time
	validate     *validator.Validate

	store store.Store

	// Redis is optional; readyz skips the cache check when nil.
	Redis *redis.Client

	IdentityService   *service.IdentityService
	AuthorizeService  *service.AuthorizeService
	UserService       *service.UserService
	CourseService     *service.CourseService
	AssignmentService *service.AssignmentService
	SubmissionService *service.SubmissionService
}

func NewRouter(
	st store.Store,
	limiter ratelimit.Limiter,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		logger:       logger,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		validate:     validator.New(),
		store:        st,
	}

	// Every request passes the token bucket before anything else looks at
	// its credentials.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		ratelimit.Middleware(limiter, httpx.IPKeyExtractor),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerCourses()
	r.registerAssignments()
	r.registerSubmissions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		Users:     r.UserService,
		Identity:  r.IdentityService,
		Authorize: r.AuthorizeService,
		Validate:  r.validate,
	}

	// Anonymous signup is allowed for students; a credential, when sent,
	// is verified so admins can create privileged accounts.
	r.Mux.Handle("POST /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			OptionalIdentity(r.IdentityService),
		),
	)

	// Extra per-IP guard on top of the global bucket, login attempts are
	// the brute-force target.
	r.Mux.Handle("POST /v1/users/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			RequireIdentity(r.IdentityService),
		),
	)
}

func (r *Router) registerCourses() {
	h := &CoursesHandler{
		Courses:     r.CourseService,
		Assignments: r.AssignmentService,
		Authorize:   r.AuthorizeService,
		Validate:    r.validate,
	}

	authed := RequireIdentity(r.IdentityService)

	r.Mux.Handle("GET /v1/courses", http.HandlerFunc(h.HandleList))
	r.Mux.Handle("POST /v1/courses", httpx.Chain(http.HandlerFunc(h.HandleCreate), authed))
	r.Mux.Handle("GET /v1/courses/{id}", http.HandlerFunc(h.HandleGet))
	r.Mux.Handle("PATCH /v1/courses/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdate), authed))
	r.Mux.Handle("DELETE /v1/courses/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), authed))
	r.Mux.Handle("GET /v1/courses/{id}/students", httpx.Chain(http.HandlerFunc(h.HandleStudents), authed))
	r.Mux.Handle("POST /v1/courses/{id}/students", httpx.Chain(http.HandlerFunc(h.HandleUpdateEnrollment), authed))
	r.Mux.Handle("GET /v1/courses/{id}/roster", httpx.Chain(http.HandlerFunc(h.HandleRoster), authed))
	r.Mux.Handle("GET /v1/courses/{id}/assignments", http.HandlerFunc(h.HandleAssignments))
}

func (r *Router) registerAssignments() {
	h := &AssignmentsHandler{
		Assignments: r.AssignmentService,
		Submissions: r.SubmissionService,
		Authorize:   r.AuthorizeService,
		Validate:    r.validate,
	}

	authed := RequireIdentity(r.IdentityService)

	r.Mux.Handle("POST /v1/assignments", httpx.Chain(http.HandlerFunc(h.HandleCreate), authed))
	r.Mux.Handle("GET /v1/assignments/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), authed))
	r.Mux.Handle("PATCH /v1/assignments/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdate), authed))
	r.Mux.Handle("DELETE /v1/assignments/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), authed))
	r.Mux.Handle("GET /v1/assignments/{id}/submissions", httpx.Chain(http.HandlerFunc(h.HandleListSubmissions), authed))
	r.Mux.Handle("POST /v1/assignments/{id}/submissions", httpx.Chain(http.HandlerFunc(h.HandleCreateSubmission), authed))
}

func (r *Router) registerSubmissions() {
	h := &SubmissionsHandler{
		Submissions: r.SubmissionService,
		Authorize:   r.AuthorizeService,
	}

	r.Mux.Handle("GET /v1/submissions/{id}/file",
		httpx.Chain(http.HandlerFunc(h.HandleGetFile),
			RequireIdentity(r.IdentityService),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Redis))
}
