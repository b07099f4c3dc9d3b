package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

type SubmissionsHandler struct {
	Submissions *service.SubmissionService
	Authorize   *service.AuthorizeService
}

// HandleGetFile streams a submission's stored file back to an authorized
// caller with the content type it was uploaded with.
func (h *SubmissionsHandler) HandleGetFile(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	submissionID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionDownloadFile, domain.ResourceRef{SubmissionID: submissionID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	sub, data, err := h.Submissions.GetFile(r.Context(), submissionID)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	w.Header().Set("Content-Type", sub.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if sub.Filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sub.Filename))
	}
	if _, err := w.Write(data); err != nil {
		slogx.FromContext(r.Context()).Error("write submission file", "submission_id", submissionID, "err", err)
	}
}
