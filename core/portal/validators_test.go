package portal

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/internship/core"
)

func newTestValidator() (*validator.Validate, func(err error) map[string]string) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, func(err error) map[string]string {
		if err == nil {
			return nil
		}
		return core.TranslateErrors(err.(validator.ValidationErrors), translator)
	}
}

func TestCheckRegistration(t *testing.T) {
	tests := []struct {
		name, regNo, email string
		wantErr            error
	}{
		{name: "student mailbox", regNo: "FA21-BCS-001", email: "fa21-bcs-001@students.cuisahiwal.edu.pk"},
		{name: "staff domain", regNo: "FA21-BSE-123", email: "someone@cuisahiwal.edu.pk"},
		{name: "comsats domain", regNo: "FA19-BBA-010", email: "x@sahiwal.comsats.edu.pk"},
		{name: "long program", regNo: "FA22-BSCS-010", email: "x@cuisahiwal.edu.pk"},
		{name: "no dashes", regNo: "FA21BCS001", email: "x@cuisahiwal.edu.pk", wantErr: ErrRegNoFormat},
		{name: "lower case", regNo: "fa21-bcs-001", email: "x@cuisahiwal.edu.pk", wantErr: ErrRegNoFormat},
		{name: "short program", regNo: "FA21-B-001", email: "x@cuisahiwal.edu.pk", wantErr: ErrRegNoFormat},
		{name: "spring intake", regNo: "SP21-BCS-001", email: "x@cuisahiwal.edu.pk", wantErr: ErrRegNoFormat},
		{name: "empty", wantErr: ErrRegNoFormat},
		{name: "foreign domain", regNo: "FA21-BCS-001", email: "fa21-bcs-001@gmail.com", wantErr: ErrEmailDomain},
		{name: "lookalike domain", regNo: "FA21-BCS-001", email: "x@cuisahiwal.edu.pk.evil.com", wantErr: ErrEmailDomain},
		{name: "other mailbox", regNo: "FA21-BCS-001", email: "fa21-bcs-002@students.cuisahiwal.edu.pk", wantErr: ErrEmailLocalPart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, CheckRegistration(tt.regNo, tt.email))
		})
	}
}

func TestNormalizeRegNo(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{input: "FA21-BCS-001", want: "FA21-BCS-001"},
		{input: "fa21-bcs-001", want: "FA21-BCS-001"},
		{input: "fa21_bcs_001", want: "FA21-BCS-001"},
		{input: "FA21BCS001", want: "FA21-BCS-001"},
		{input: "fa21 -- bcs / 001", want: "FA21-BCS-001"},
		{input: "fa21-bc", want: "FA21-BC"},
		{input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRegNo(tt.input))
		})
	}
}

func TestPasswordPolicyTag(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg12", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcdef1!x", want: pwdComplexityTag},
		{name: "like the name", pwd: "Ali.Khan1!", attrs: []string{"Ali Khan"}, want: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd", want: pwdNoCommonTag},
		{name: "valid", pwd: "Tr0ub4dor&3", attrs: []string{"Ali Khan", "ali@cuisahiwal.edu.pk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PasswordPolicyTag(tt.pwd, tt.attrs...)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.NotEmpty(t, PasswordPolicyText(got))
			}
		})
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	validate, fieldErrs := newTestValidator()

	tests := []struct {
		name    string
		req     RegisterRequest
		want    map[string]string
		wantReg string
	}{
		{
			name:    "valid and normalized",
			req:     RegisterRequest{Name: " Ali ", Email: "FA21-BCS-001@students.cuisahiwal.edu.pk", Password: "Tr0ub4dor&3", RegNo: "fa21_bcs_001"},
			wantReg: "FA21-BCS-001",
		},
		{
			name: "required",
			req:  RegisterRequest{},
			want: map[string]string{"name": "this field is required", "email": "this field is required", "password": "this field is required", "regNo": "this field is required"},
		},
		{
			name: "bad regno and domain",
			req:  RegisterRequest{Name: "Ali", Email: "ali@gmail.com", Password: "Tr0ub4dor&3", RegNo: "12"},
			want: map[string]string{"email": ErrEmailDomain.Msg, "regNo": ErrRegNoFormat.Msg},
		},
		{
			name: "mailbox mismatch and weak password",
			req:  RegisterRequest{Name: "Ali", Email: "ali@students.cuisahiwal.edu.pk", Password: "password", RegNo: "FA21-BCS-001"},
			want: map[string]string{"email": ErrEmailLocalPart.Msg, "password": pwdComplexityText},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Validate(validate)
			assert.Equal(t, tt.want, fieldErrs(err))
			if tt.wantReg != "" {
				assert.Equal(t, tt.wantReg, req.RegNo)
			}
		})
	}
}

func TestPasswordRequests_Validate(t *testing.T) {
	validate, fieldErrs := newTestValidator()

	err := ChangePasswordRequest{OldPassword: "old", NewPassword: "short"}.Validate(validate)
	assert.Equal(t, map[string]string{"newPassword": pwdMinLenText}, fieldErrs(err))
	assert.NoError(t, ChangePasswordRequest{OldPassword: "old", NewPassword: "Tr0ub4dor&3"}.Validate(validate))

	err = ResetPasswordRequest{Token: "t", Password: "Tr0ub4dor&3", PasswordConfirm: "other"}.Validate(validate)
	require.Error(t, err)
	assert.Contains(t, fieldErrs(err), "passwordConfirm")

	req := CreateAccountRequest{Name: "Fac", Email: " FAC@cuisahiwal.edu.pk ", Password: "Tr0ub4dor&3", Role: "faculty"}
	require.NoError(t, req.Validate(validate))
	assert.Equal(t, AccountFaculty, req.Role)
	assert.Equal(t, "fac@cuisahiwal.edu.pk", req.Email)

	req = CreateAccountRequest{Name: "Fac", Email: "fac@cuisahiwal.edu.pk", Password: "Tr0ub4dor&3", Role: "janitor"}
	assert.Error(t, req.Validate(validate))
}

func TestAppExA_Validate(t *testing.T) {
	validate, fieldErrs := newTestValidator()
	ax := AppExA{Organization: "Acme", ContactName: "Boss", ContactEmail: "boss@acme", StartDate: "2024-02-01"}
	err := validate.Struct(ax)
	assert.Equal(t, map[string]string{"contactEmail": "enter a valid email address", "endDate": "this field is required"}, fieldErrs(err))

	ax.ContactEmail, ax.EndDate = "boss@acme.com", "2024-04-01"
	assert.NoError(t, validate.Struct(ax))
}

func TestEvidenceValid(t *testing.T) {
	tests := []struct {
		name string
		data FreelanceData
		want bool
	}{
		{name: "fiverr gigs", data: FreelanceData{Platform: ModeFiverr, GigsCompleted: 1}, want: true},
		{name: "fiverr nothing", data: FreelanceData{Platform: ModeFiverr, ProposalsApplied: 4}},
		{name: "upwork proposals", data: FreelanceData{Platform: ModeUpwork, ProposalsApplied: 3}, want: true},
		{name: "upwork feedback text", data: FreelanceData{Platform: ModeUpwork, ClientFeedback: "great"}, want: true},
		{name: "onsite summary", data: FreelanceData{Platform: ModeOnSite, WorkSummary: "built APIs"}, want: true},
		{name: "virtual earnings only", data: FreelanceData{Platform: ModeVirtual, EarningsUSD: 100}},
		{name: "negative", data: FreelanceData{Platform: ModeFiverr, GigsCompleted: 3, EarningsUSD: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvidenceValid(tt.data))
		})
	}

	assert.True(t, MeetsFiverr(FreelanceData{GigsCompleted: 2}))
	assert.True(t, MeetsFiverr(FreelanceData{EarningsUSD: 500}))
	assert.False(t, MeetsUpwork(FreelanceData{ProposalsApplied: 10, EarningsUSD: 499}))
	assert.True(t, MeetsUpwork(FreelanceData{ProposalsApplied: 10, EarningsUSD: 500}))
}

func TestStudentGates(t *testing.T) {
	assert.Equal(t, ErrNotApproved, EnsureApproved(Student{}))
	assert.NoError(t, EnsureApproved(Student{Approved: true}))

	me := Principal{Role: RoleStudent, StudentID: "s1"}
	assert.NoError(t, EnsureMine(me, "s1"))
	assert.Equal(t, ErrNotYours, EnsureMine(me, "s2"))
	assert.NoError(t, EnsureMine(Principal{Role: RoleFaculty, FacultyID: "f1"}, "s2"))
}

func TestAllowedRoles(t *testing.T) {
	tests := []struct {
		name    string
		allowed []Role
		current *Principal
		want    bool
	}{
		{name: "no restriction", want: true},
		{name: "no restriction signed in", current: &Principal{Role: RoleStudent}, want: true},
		{name: "anonymous", allowed: []Role{RoleAdmin}},
		{name: "no role", allowed: []Role{RoleAdmin}, current: &Principal{}},
		{name: "allowed", allowed: SiteRoles, current: &Principal{Role: RoleSiteSupervisor}, want: true},
		{name: "denied", allowed: []Role{RoleAdmin}, current: &Principal{Role: RoleFaculty}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedRoles(tt.allowed, tt.current))
		})
	}
}
