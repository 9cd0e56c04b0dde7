package portal

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/internship/core"
)

// RegisterRequest is the student sign up form.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email,campusemail"`
	Password string `json:"password" validate:"required"`
	RegNo    string `json:"regNo" validate:"required,regno"`
}

func (r *RegisterRequest) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.RegNo = NormalizeRegNo(core.CleanString(r.RegNo))
	return validate.Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username"` // legacy office login
}

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	if r.Email == "" {
		r.Email = r.Username
	}
	r.Email = strings.TrimSpace(r.Email)
	return validate.Struct(r)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (r ChangePasswordRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func (r TokenRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
}

func (r ResetPasswordRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }

// CreateAccountRequest is how the office opens an account for someone else.
type CreateAccountRequest struct {
	Email      string      `json:"email" validate:"required,email"`
	Name       string      `json:"name" validate:"required"`
	Password   string      `json:"password" validate:"required"`
	Role       AccountRole `json:"role" validate:"omitempty,oneof=ADMIN FACULTY SITE STUDENT"`
	Department string      `json:"department"`
	CompanyID  string      `json:"companyId"`
}

func (r *CreateAccountRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Name = core.CleanString(r.Name)
	r.Role = AccountRole(strings.ToUpper(strings.TrimSpace(string(r.Role))))
	if r.Role == "" {
		r.Role = AccountAdmin
	}
	return validate.Struct(r)
}

// AccountCreated is the answer to a CreateAccountRequest.
type AccountCreated struct {
	Message   string         `json:"message"`
	User      AccountSummary `json:"user"`
	Password  string         `json:"password"`
	CreatedBy string         `json:"createdBy"`
}

type AccountSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  AccountRole `json:"role"`
}

// CreateInternshipRequest picks the internship type and supervisors of a student.
type CreateInternshipRequest struct {
	Type      string `json:"type" validate:"required,oneof=ONSITE REMOTE VIRTUAL HYBRID"`
	SiteID    string `json:"siteId"`
	FacultyID string `json:"facultyId"`
}

func (r *CreateInternshipRequest) Validate(validate *validator.Validate) error {
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	return validate.Struct(r)
}

// Mode maps the internship type to the internship mode of the student.
func (r CreateInternshipRequest) Mode() InternshipMode {
	if r.Type == "ONSITE" || r.Type == "HYBRID" {
		return ModeOnSite
	}
	return ModeVirtual
}

type ReviewRequest struct {
	Decision ReviewStatus `json:"decision" validate:"required,oneof=approved rejected"`
	Comment  string       `json:"comment"`
}

func (r ReviewRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }

type MarkRequest struct {
	Mark float64 `json:"mark"`
}

type SubMarksRequest struct {
	Proposal float64 `json:"proposal"`
	Logs     float64 `json:"logs"`
	Final    float64 `json:"final"`
}

type ComplaintRequest struct {
	Category ComplaintCategory `json:"category" validate:"required,oneof=Technical Supervisor Organization Other"`
	Message  string            `json:"message" validate:"required"`
}

func (r *ComplaintRequest) Validate(validate *validator.Validate) error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Category == "" {
		r.Category = ComplaintOther
	}
	return validate.Struct(r)
}

type FacultyRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department"`
	Password   string `json:"password"`
}

func (r *FacultyRequest) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type SiteRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
	Password    string `json:"password"`
}

func (r *SiteRequest) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.CompanyName = core.CleanString(r.CompanyName)
	return validate.Struct(r)
}

type CompanyRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	CompanyExtras
}

func (r *CompanyRequest) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Address = core.CleanString(r.Address)
	return validate.Struct(r)
}

type AssignSupervisorRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	FacultyID string `json:"facultyId"`
	SiteID    string `json:"siteId"`
	CompanyID string `json:"companyId"`
}

func (r AssignSupervisorRequest) Validate(validate *validator.Validate) error {
	if r.FacultyID == "" && r.SiteID == "" && r.CompanyID == "" {
		return core.NewFieldError("facultyId", "one of facultyId, siteId or companyId is required")
	}
	return validate.Struct(r)
}
