package portal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/internship/core"
)

type mailRecorder struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (r *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, messages...)
}

func (r *mailRecorder) last(t *testing.T) *core.EmailMessage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent)
	return r.sent[len(r.sent)-1]
}

func (r *mailRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func tokenOf(t *testing.T, msg *core.EmailMessage) string {
	t.Helper()
	data, ok := msg.TemplateData.(map[string]interface{})
	require.True(t, ok)
	token, _ := data["Token"].(string)
	require.NotEmpty(t, token)
	return token
}

func newTestService(t *testing.T) (*Service, *mailRecorder) {
	t.Helper()
	store, _ := newTestStore(t)
	mails := &mailRecorder{}
	return NewService(store, mails, core.NewTestConfig(), core.NewNopLogger()), mails
}

func TestService_RegisterAndVerify(t *testing.T) {
	svc, mails := newTestService(t)
	req := RegisterRequest{Name: "Ali", Email: "fa21-bcs-001@students.cuisahiwal.edu.pk", Password: "Secret#123", RegNo: "FA21-BCS-001"}

	st, err := svc.Register(req)
	require.NoError(t, err)
	assert.False(t, st.EmailVerified)
	assert.Nil(t, svc.Store().CurrentUser(), "API registration does not sign in")

	msg := mails.last(t)
	assert.Equal(t, verifyEmailTemplate, msg.TemplateName)
	assert.Equal(t, st.Email, msg.To[0].Address)
	token := tokenOf(t, msg)

	_, err = svc.Register(req)
	assert.Equal(t, ErrEmailRegistered, err)
	assert.Equal(t, 1, mails.count())

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "garbage", wantErr: ErrInvalidToken},
		{name: "other role", token: EncodeUID(RoleFaculty, st.ID) + ".HE4TS-sig", wantErr: ErrInvalidToken},
		{name: "bad signature", token: EncodeUID(RoleStudent, st.ID) + ".HE4TS-sig", wantErr: ErrInvalidToken},
		{name: "valid", token: token},
		{name: "already verified", token: token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.VerifyEmail(tt.token)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.EmailVerified)
		})
	}

	// verified students get no more links; unknown emails are ignored silently
	require.NoError(t, svc.SendVerificationEmail(st.Email))
	require.NoError(t, svc.SendVerificationEmail("nobody@cuisahiwal.edu.pk"))
	assert.Equal(t, 1, mails.count())
}

func TestService_PasswordReset(t *testing.T) {
	svc, mails := newTestService(t)
	store := svc.Store()
	st := mustStudent(t, store, "Ali", "ali@cuisahiwal.edu.pk")
	siteID, err := store.AddSiteSupervisor("Site", "site@acme.com", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset("nobody@x.com"))
	assert.Zero(t, mails.count())

	tests := []struct {
		name  string
		email string
		login func(pwd string) error
	}{
		{name: "student", email: st.Email, login: func(pwd string) error { _, err := store.Login(st.Email, pwd); return err }},
		{name: "site supervisor", email: "SITE@acme.com", login: func(pwd string) error { _, err := store.LoginSite("site@acme.com", pwd); return err }},
		{name: "faculty", email: seedFacultyEmail, login: func(pwd string) error { _, err := store.LoginFaculty(seedFacultyEmail, pwd); return err }},
		{name: "office", email: testAdmin.Email, login: func(pwd string) error { _, err := store.LoginAdmin(testAdmin.Email, pwd); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, svc.RequestPasswordReset(tt.email))
			msg := mails.last(t)
			assert.Equal(t, passwordResetTemplate, msg.TemplateName)
			token := tokenOf(t, msg)

			require.NoError(t, svc.ResetPassword(ResetPasswordRequest{Token: token, Password: "Brand#New1"}))
			assert.NoError(t, tt.login("Brand#New1"))

			// the token dies with the old password
			assert.Equal(t, ErrInvalidToken, svc.ResetPassword(ResetPasswordRequest{Token: token, Password: "Other#New2"}))
		})
	}

	_, err = store.SiteSupervisor(siteID)
	require.NoError(t, err)
	assert.Equal(t, ErrInvalidToken, svc.ResetPassword(ResetPasswordRequest{Token: "nope", Password: "Brand#New1"}))
}

func TestService_CreateAccount(t *testing.T) {
	svc, _ := newTestService(t)
	comp, err := svc.Store().AddCompany("Acme", "", nil)
	require.NoError(t, err)
	admin := Principal{Role: RoleAdmin, Email: testAdmin.Email}

	tests := []struct {
		name    string
		req     CreateAccountRequest
		wantErr error
		check   func(t *testing.T, res AccountCreated)
	}{
		{
			name: "faculty",
			req:  CreateAccountRequest{Name: "Fac", Email: "fac@cuisahiwal.edu.pk", Password: "Faculty#123", Role: AccountFaculty, Department: "CS"},
			check: func(t *testing.T, res AccountCreated) {
				f, err := svc.Store().FacultySupervisor(res.User.ID)
				require.NoError(t, err)
				assert.Equal(t, "CS", f.Department)
				_, err = svc.Store().LoginFaculty("fac@cuisahiwal.edu.pk", "Faculty#123")
				assert.NoError(t, err)
			},
		},
		{
			name: "site",
			req:  CreateAccountRequest{Name: "Site", Email: "site@acme.com", Password: "Site#1234", Role: AccountSite, CompanyID: comp},
			check: func(t *testing.T, res AccountCreated) {
				sup, err := svc.Store().SiteSupervisor(res.User.ID)
				require.NoError(t, err)
				assert.Equal(t, comp, sup.CompanyID)
			},
		},
		{
			name: "student",
			req:  CreateAccountRequest{Name: "Ali", Email: "ali@cuisahiwal.edu.pk", Password: "Secret#123", Role: AccountStudent},
			check: func(t *testing.T, res AccountCreated) {
				_, err := svc.Store().Login("ali@cuisahiwal.edu.pk", "Secret#123")
				assert.NoError(t, err)
			},
		},
		{
			name: "office",
			req:  CreateAccountRequest{Name: "Officer", Email: "officer@cuisahiwal.edu.pk", Password: "Officer#123", Role: AccountAdmin},
			check: func(t *testing.T, res AccountCreated) {
				assert.Len(t, svc.Store().InternshipOfficers(), 1)
			},
		},
		{
			name:    "email taken",
			req:     CreateAccountRequest{Name: "Again", Email: seedFacultyEmail, Password: "Faculty#123", Role: AccountFaculty},
			wantErr: ErrEmailTaken,
		},
		{
			name:    "unknown company",
			req:     CreateAccountRequest{Name: "Site", Email: "other@acme.com", Password: "Site#1234", Role: AccountSite, CompanyID: "nope"},
			wantErr: ErrCompanyNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.CreateAccount(tt.req, admin)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Account created successfully", res.Message)
			assert.Equal(t, tt.req.Role, res.User.Role)
			assert.Equal(t, tt.req.Password, res.Password)
			assert.Equal(t, testAdmin.Email, res.CreatedBy)
			assert.NotEmpty(t, res.User.ID)
			tt.check(t, res)
		})
	}
}
