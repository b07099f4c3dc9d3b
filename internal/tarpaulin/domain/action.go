package domain

// Action names a guarded operation for the authorization policy. One
// action maps to one row of the policy table.
type Action string

const (
	ActionCreateCourse     Action = "course:create"
	ActionUpdateCourse     Action = "course:update"
	ActionDeleteCourse     Action = "course:delete"
	ActionViewRoster       Action = "course:roster" // students list, CSV roster, enrollment changes
	ActionCreateAssignment Action = "assignment:create"
	ActionUpdateAssignment Action = "assignment:update"
	ActionDeleteAssignment Action = "assignment:delete"
	ActionListSubmissions  Action = "assignment:submissions"
	ActionCreateSubmission Action = "submission:create"
	ActionDownloadFile     Action = "submission:download"
	ActionViewUser         Action = "user:view"
)

// ResourceRef points the policy at the record an action targets. Only the
// field relevant to the action is set.
type ResourceRef struct {
	CourseID     string
	AssignmentID string
	SubmissionID string
	UserID       string
}
