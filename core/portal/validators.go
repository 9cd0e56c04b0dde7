package portal

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/internship/assets"
	"github.com/trezcool/internship/core"
)

var (
	regNoTag   = "regno"
	regNoRegex = regexp.MustCompile(`^FA\d{2}-[A-Z]{2,}-\d{3}$`)

	campusEmailTag = "campusemail"
	campusDomains  = []string{"@sahiwal.comsats.edu.pk", "@cuisahiwal.edu.pk", "@students.cuisahiwal.edu.pk"}
	studentDomain  = "@students.cuisahiwal.edu.pk"

	emailLocalPartTag = "regnoemail"

	contactEmailTag   = "contactemail"
	contactEmailText  = "enter a valid email address"
	contactEmailRegex = regexp.MustCompile(`.+@.+\..+`)

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your name or email"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"

	commonPasswords     []string
	loadCommonPasswords sync.Once
)

// InitValidators registers the portal validation tags, struct rules and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	loadCommonPasswords.Do(readCommonPasswords)

	_ = validate.RegisterValidation(regNoTag, regNoValidation)
	core.RegisterCustomTranslation(validate, translator, regNoTag, ErrRegNoFormat.Msg)
	_ = validate.RegisterValidation(campusEmailTag, campusEmailValidation)
	core.RegisterCustomTranslation(validate, translator, campusEmailTag, ErrEmailDomain.Msg)
	_ = validate.RegisterValidation(contactEmailTag, contactEmailValidation)
	core.RegisterCustomTranslation(validate, translator, contactEmailTag, contactEmailText)
	core.RegisterCustomTranslation(validate, translator, emailLocalPartTag, ErrEmailLocalPart.Msg)

	validate.RegisterStructValidation(registerStructValidation, RegisterRequest{})
	validate.RegisterStructValidation(passwordStructValidation, ChangePasswordRequest{}, ResetPasswordRequest{}, CreateAccountRequest{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

func readCommonPasswords() {
	file, err := assets.FS.Open(assets.CommonPasswordsFile)
	if err != nil {
		return
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()
	if gzRdr, err := gzip.NewReader(file); err == nil {
		scanner := bufio.NewScanner(gzRdr)
		for scanner.Scan() {
			if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
				commonPasswords = append(commonPasswords, strings.ToLower(pwd))
			}
		}
	}
	sort.Strings(commonPasswords)
}

// Registration rules

func regNoValidation(fl validator.FieldLevel) bool {
	return regNoRegex.MatchString(fl.Field().String())
}

func isCampusEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, domain := range campusDomains {
		if strings.HasSuffix(lower, domain) {
			return true
		}
	}
	return false
}

func campusEmailValidation(fl validator.FieldLevel) bool {
	return isCampusEmail(fl.Field().String())
}

func contactEmailValidation(fl validator.FieldLevel) bool {
	return contactEmailRegex.MatchString(fl.Field().String())
}

// localPartMatches tells whether a student mailbox is named after the registration number.
// Addresses outside the student domain always match.
func localPartMatches(regNo, email string) bool {
	lower := strings.ToLower(email)
	if !strings.HasSuffix(lower, studentDomain) {
		return true
	}
	return strings.SplitN(lower, "@", 2)[0] == strings.ToLower(regNo)
}

// CheckRegistration applies the registration number and campus email rules, in that order.
func CheckRegistration(regNo, email string) error {
	if !regNoRegex.MatchString(regNo) {
		return ErrRegNoFormat
	}
	if !isCampusEmail(email) {
		return ErrEmailDomain
	}
	if !localPartMatches(regNo, email) {
		return ErrEmailLocalPart
	}
	return nil
}

var (
	regNoPartsRegex = regexp.MustCompile(`^([A-Z]{2})(\d{0,2})-?([A-Z]{0,4})-?(\d{0,3})$`)
	regNoJunkRegex  = regexp.MustCompile(`[^A-Z0-9-]`)
	dashesRegex     = regexp.MustCompile(`-+`)
)

// NormalizeRegNo cleans a typed registration number: upper case, '_' as '-', no stray characters,
// and segments re-joined as AA00-BBB-000 when the input is recognizable.
func NormalizeRegNo(input string) string {
	v := strings.ReplaceAll(strings.ToUpper(input), "_", "-")
	v = dashesRegex.ReplaceAllString(v, "-")
	v = regNoJunkRegex.ReplaceAllString(v, "")
	if m := regNoPartsRegex.FindStringSubmatch(v); m != nil {
		segs := make([]string, 0, 3)
		for _, seg := range []string{m[1] + m[2], m[3], m[4]} {
			if seg != "" {
				segs = append(segs, seg)
			}
		}
		v = strings.Join(segs, "-")
	}
	return v
}

// Password policy

func registerStructValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(RegisterRequest)
	if req.Email != "" && regNoRegex.MatchString(req.RegNo) && !localPartMatches(req.RegNo, req.Email) {
		sl.ReportError(req.Email, "email", "Email", emailLocalPartTag, "")
	}
	if req.Password != "" {
		validatePassword(req.Password, sl, req.Name, req.Email, req.RegNo)
	}
}

func passwordStructValidation(sl validator.StructLevel) {
	switch req := sl.Current().Interface().(type) {
	case ChangePasswordRequest:
		if req.NewPassword != "" {
			validatePasswordField(req.NewPassword, "newPassword", "NewPassword", sl)
		}
	case ResetPasswordRequest:
		if req.Password != "" {
			validatePassword(req.Password, sl)
		}
	case CreateAccountRequest:
		if req.Password != "" {
			validatePassword(req.Password, sl, req.Name, req.Email)
		}
	}
}

func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	validatePasswordField(pwd, "password", "Password", sl, attrs...)
}

func validatePasswordField(pwd, field, structField string, sl validator.StructLevel, attrs ...string) {
	if tag := PasswordPolicyTag(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, field, structField, tag, "")
	}
}

// PasswordPolicyTag returns the tag of the first password rule pwd breaks, "" if it complies:
//   - minLen: 8
//   - no whitespace
//   - not all numeric
//   - complexity: 1 upper, 1 lower, 1 digit, 1 special
//   - not similar to the account attributes
//   - not a common password
func PasswordPolicyTag(pwd string, attrs ...string) string {
	var (
		digitCount         int
		hasUpper, hasLower bool
	)

	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == pwdLen {
		return pwdNotAllNumTag
	}

	if !(hasUpper && hasLower && digitCount > 0 && specialRegex.MatchString(pwd)) {
		return pwdComplexityTag
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(strings.ToLower(attr), "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}

	loadCommonPasswords.Do(readCommonPasswords)
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) && commonPasswords[idx] == lpwd {
		return pwdNoCommonTag
	}
	return ""
}

// PasswordPolicyText is the message of a PasswordPolicyTag.
func PasswordPolicyText(tag string) string {
	switch tag {
	case pwdMinLenTag:
		return pwdMinLenText
	case pwdNoSpaceTag:
		return pwdNoSpaceText
	case pwdNotAllNumTag:
		return pwdNotAllNumText
	case pwdComplexityTag:
		return pwdComplexityText
	case pwdAttrSimTag:
		return pwdAttrSimText
	case pwdNoCommonTag:
		return pwdNoCommonText
	}
	return ""
}

// Freelance evidence

func MeetsFiverr(data FreelanceData) bool { return data.GigsCompleted >= 2 || data.EarningsUSD >= 500 }

func MeetsUpwork(data FreelanceData) bool { return data.ProposalsApplied >= 10 && data.EarningsUSD >= 500 }

// EvidenceValid tells whether a submission shows any activity for its platform.
func EvidenceValid(data FreelanceData) bool {
	if data.EarningsUSD < 0 || data.GigsCompleted < 0 || data.ProposalsApplied < 0 {
		return false
	}
	var hasText bool
	for _, txt := range []string{data.ClientFeedback, data.ApprovalEvidence, data.ContractSummary, data.WorkSummary, data.Technologies, data.Logbook} {
		if strings.TrimSpace(txt) != "" {
			hasText = true
			break
		}
	}
	switch data.Platform {
	case ModeFiverr:
		return data.GigsCompleted > 0 || data.EarningsUSD > 0 || hasText
	case ModeUpwork:
		return data.ProposalsApplied > 0 || data.EarningsUSD > 0 || hasText
	}
	return hasText
}

// CanSubmitFreelance allows a first submission, or a new one after the last was rejected.
func CanSubmitFreelance(records []FreelanceRecord) bool {
	if len(records) == 0 {
		return true
	}
	return records[len(records)-1].Status == StatusRejected
}

// Student gates

// EnsureApproved gates the records a student may only file once approved by the office.
func EnsureApproved(st Student) error {
	if !st.Approved {
		return ErrNotApproved
	}
	return nil
}

// EnsureMine checks that a student principal acts on their own record. Other roles pass.
func EnsureMine(p Principal, studentID string) error {
	if p.Role == RoleStudent && p.StudentID != studentID {
		return ErrNotYours
	}
	return nil
}
