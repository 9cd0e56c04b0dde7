package portal

import (
	"fmt"
	"net/mail"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
)

const (
	verifyEmailTemplate   = "verify_email"
	passwordResetTemplate = "password_reset"
)

// Service runs the account flows that need more than the store: emails and one-time tokens.
type Service struct {
	store   *Store
	mailSvc core.EmailService
	tokens  *TokenGenerator
	logger  core.Logger
}

func NewService(store *Store, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		store:   store,
		mailSvc: mailSvc,
		tokens:  NewTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		logger:  logger,
	}
}

func (svc *Service) Store() *Store { return svc.store }

// Register signs a student up and mails them a verification link.
func (svc *Service) Register(req RegisterRequest) (Student, error) {
	st, err := svc.store.RegisterStudent(req.Name, req.Email, req.Password, req.RegNo)
	if err != nil {
		return Student{}, err
	}
	svc.sendVerificationMail(st)
	return st, nil
}

func verifySubject(st Student) TokenSubject {
	return TokenSubject{Role: RoleStudent, ID: st.ID, State: []byte(st.Email + strconv.FormatBool(st.EmailVerified))}
}

func (svc *Service) sendVerificationMail(st Student) {
	token, err := svc.tokens.MakeToken(PurposeVerifyEmail, verifySubject(st))
	if err != nil {
		svc.logger.Error(fmt.Sprintf("making verification token: %v", err), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject:      "Verify your email address",
		TemplateName: verifyEmailTemplate,
		TemplateData: map[string]interface{}{"Name": st.Name, "Token": token},
	})
}

// SendVerificationEmail mails a new verification link to an unverified student. Unknown emails are ignored.
func (svc *Service) SendVerificationEmail(email string) error {
	st, err := svc.store.StudentByEmail(email)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if !st.EmailVerified {
		svc.sendVerificationMail(st)
	}
	return nil
}

// VerifyEmail marks the email of the student a verification token was issued for as verified.
func (svc *Service) VerifyEmail(token string) (Student, error) {
	role, id, err := DecodeUID(token)
	if err != nil || role != RoleStudent {
		return Student{}, ErrInvalidToken
	}
	st, err := svc.store.Student(id)
	if err != nil {
		return Student{}, ErrInvalidToken
	}
	if st.EmailVerified {
		return st, nil
	}
	if err := svc.tokens.VerifyToken(PurposeVerifyEmail, verifySubject(st), token); err != nil {
		return Student{}, ErrInvalidToken
	}
	return svc.store.UpdateStudent(id, StudentChanges{EmailVerified: nullBool(true)})
}

type account struct {
	sub   TokenSubject
	name  string
	email string
}

func (svc *Service) accountByEmail(email string) (account, bool) {
	if prof := svc.store.AdminProfile(); sameEmail(prof.Email, email) {
		return account{TokenSubject{RoleAdmin, string(RoleAdmin), prof.PasswordHash}, prof.Name, prof.Email}, true
	}
	for _, f := range svc.store.FacultySupervisors() {
		if sameEmail(f.Email, email) {
			return account{TokenSubject{RoleFaculty, f.ID, f.PasswordHash}, f.Name, f.Email}, true
		}
	}
	for _, sup := range svc.store.SiteSupervisors() {
		if sameEmail(sup.Email, email) {
			return account{TokenSubject{RoleSiteSupervisor, sup.ID, sup.PasswordHash}, sup.Name, sup.Email}, true
		}
	}
	if st, err := svc.store.StudentByEmail(email); err == nil {
		return account{TokenSubject{RoleStudent, st.ID, st.PasswordHash}, st.Name, st.Email}, true
	}
	return account{}, false
}

func (svc *Service) accountByID(role Role, id string) (account, error) {
	switch role {
	case RoleAdmin:
		prof := svc.store.AdminProfile()
		return account{TokenSubject{RoleAdmin, string(RoleAdmin), prof.PasswordHash}, prof.Name, prof.Email}, nil
	case RoleFaculty:
		f, err := svc.store.FacultySupervisor(id)
		return account{TokenSubject{RoleFaculty, f.ID, f.PasswordHash}, f.Name, f.Email}, err
	case RoleSite, RoleSiteSupervisor:
		sup, err := svc.store.SiteSupervisor(id)
		return account{TokenSubject{RoleSiteSupervisor, sup.ID, sup.PasswordHash}, sup.Name, sup.Email}, err
	case RoleStudent:
		st, err := svc.store.Student(id)
		return account{TokenSubject{RoleStudent, st.ID, st.PasswordHash}, st.Name, st.Email}, err
	}
	return account{}, ErrInvalidRole
}

// RequestPasswordReset mails a reset link to the account using email. Unknown emails are ignored.
func (svc *Service) RequestPasswordReset(email string) error {
	acc, ok := svc.accountByEmail(email)
	if !ok {
		return nil
	}
	token, err := svc.tokens.MakeToken(PurposePasswordReset, acc.sub)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.name, Address: acc.email}},
		Subject:      "Password reset",
		TemplateName: passwordResetTemplate,
		TemplateData: map[string]interface{}{"Name": acc.name, "Token": token},
	})
	return nil
}

// ResetPassword sets a new password with a reset token. A used token is void since it signs the old password hash.
func (svc *Service) ResetPassword(req ResetPasswordRequest) error {
	role, id, err := DecodeUID(req.Token)
	if err != nil {
		return ErrInvalidToken
	}
	acc, err := svc.accountByID(role, id)
	if err != nil {
		return ErrInvalidToken
	}
	if err := svc.tokens.VerifyToken(PurposePasswordReset, acc.sub, req.Token); err != nil {
		return ErrInvalidToken
	}

	switch acc.sub.Role {
	case RoleAdmin:
		return svc.store.SetAdminPassword(req.Password)
	case RoleFaculty:
		return svc.store.SetFacultyPassword(id, req.Password)
	case RoleSiteSupervisor:
		return svc.store.SetSitePassword(id, req.Password)
	default:
		return svc.store.SetStudentPassword(id, req.Password)
	}
}

// CreateAccount opens an account of the requested role on behalf of the office.
// Office accounts are listed as internship officers.
func (svc *Service) CreateAccount(req CreateAccountRequest, createdBy Principal) (AccountCreated, error) {
	if svc.store.EmailInUse(req.Email) {
		return AccountCreated{}, ErrEmailTaken
	}

	summary := AccountSummary{Name: req.Name, Email: req.Email, Role: req.Role}
	switch req.Role {
	case AccountFaculty:
		f, err := svc.store.AddFacultySupervisor(req.Name, req.Email, req.Department, req.Password)
		if err != nil {
			return AccountCreated{}, err
		}
		summary.ID = f.ID
	case AccountSite:
		id, err := svc.store.AddSiteSupervisor(req.Name, req.Email, req.CompanyID, req.Password)
		if err != nil {
			return AccountCreated{}, err
		}
		summary.ID = id
	case AccountStudent:
		st, err := svc.store.CreateStudent(NewStudent{Name: req.Name, Email: req.Email, Password: req.Password})
		if err != nil {
			return AccountCreated{}, err
		}
		summary.ID = st.ID
	default:
		o, err := svc.store.AddInternshipOfficer(req.Name, req.Email)
		if err != nil {
			return AccountCreated{}, err
		}
		summary.ID = o.ID
	}

	creator := createdBy.Email
	if creator == "" {
		creator = string(createdBy.Role)
	}
	return AccountCreated{
		Message:   "Account created successfully",
		User:      summary,
		Password:  req.Password,
		CreatedBy: creator,
	}, nil
}
