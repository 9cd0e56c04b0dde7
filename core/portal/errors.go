package portal

import "github.com/pkg/errors"

type ErrorKind int

const (
	KindInvalid ErrorKind = iota + 1
	KindNotFound
	KindCredentials
	KindConflict
	KindForbidden
)

// Error is a domain error carrying a user facing message.
type Error struct {
	Kind  ErrorKind
	Field string // set for input errors tied to a request field
	Msg   string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind ErrorKind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func newFieldError(field, msg string) *Error { return &Error{Kind: KindInvalid, Field: field, Msg: msg} }

// KindOf returns the ErrorKind of err, 0 if err is not a portal error.
func KindOf(err error) ErrorKind {
	if pErr, ok := errors.Cause(err).(*Error); ok {
		return pErr.Kind
	}
	return 0
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

var (
	ErrStudentNotFound      = newError(KindNotFound, "Student not found")
	ErrFacultyNotFound      = newError(KindNotFound, "Faculty not found")
	ErrSiteNotFound         = newError(KindNotFound, "Site supervisor not found")
	ErrCompanyNotFound      = newError(KindNotFound, "Company not found")
	ErrOfficerNotFound      = newError(KindNotFound, "Internship officer not found")
	ErrAnnouncementNotFound = newError(KindNotFound, "Announcement not found")
	ErrComplaintNotFound    = newError(KindNotFound, "Complaint not found")
	ErrRequestNotFound      = newError(KindNotFound, "Request not found")
	ErrReportNotFound       = newError(KindNotFound, "Report not found")
	ErrApprovalNotFound     = newError(KindNotFound, "No internship approval submitted")
	ErrAgreementNotFound    = newError(KindNotFound, "No agreement submitted")
	ErrAssignmentNotFound   = newError(KindNotFound, "Assignment not found")
	ErrFreelanceNotFound    = newError(KindNotFound, "Evidence record not found")

	ErrInvalidCredentials        = newError(KindCredentials, "Invalid credentials")
	ErrInvalidFacultyCredentials = newError(KindCredentials, "Invalid faculty credentials")
	ErrInvalidSiteCredentials    = newError(KindCredentials, "Invalid site supervisor credentials")
	ErrInvalidAdminCredentials   = newError(KindCredentials, "Invalid admin credentials")
	ErrOldPasswordIncorrect      = newFieldError("oldPassword", "Old password is incorrect")
	ErrInvalidToken              = newError(KindInvalid, "invalid or expired token")

	ErrEmailRegistered = newFieldError("email", "Email already registered")
	ErrRegNoFormat     = newFieldError("regNo", "Registration No must match FAyy-PROGRAM-ROLL (e.g., FA22-BCS-090)")
	ErrEmailDomain     = newFieldError("email", "Use your CUI Sahiwal email (e.g., fa22-bcs-090@students.cuisahiwal.edu.pk)")
	ErrEmailLocalPart  = newFieldError("email", "Email local part must match your Registration No (e.g., FA22-BCS-090 -> fa22-bcs-090@students.cuisahiwal.edu.pk)")
	ErrInvalidRole     = newFieldError("role", "invalid role")
	ErrInvalidMode     = newFieldError("internshipMode", "invalid internship mode")
	ErrInvalidDecision = newFieldError("decision", "decision must be approved or rejected")
	ErrInvalidEvidence = newError(KindInvalid, "Please provide required evidence details before saving.")
	ErrInvalidContent  = newFieldError("contentBase64", "invalid base64 content")

	ErrInvalidTransition = newError(KindConflict, "Record has already been reviewed")
	ErrNotPending        = newError(KindConflict, "Only pending records can be changed")
	ErrNotApproved       = newError(KindConflict, "Weekly logs and reports unlock after Internship Office approval")
	ErrEvidencePending   = newError(KindConflict, "Evidence already submitted. Please wait for Internship Office review.")
	ErrAppExARequired    = newError(KindConflict, "Submit Internship Offer & Approval and the Agreement form before adding Evidence.")
	ErrEmailTaken        = newError(KindConflict, "An account with this email already exists")

	ErrNotYours = newError(KindForbidden, "You can only access your own forms")
)
