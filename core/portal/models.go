package portal

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"
)

type InternshipMode string

const (
	ModeOnSite  InternshipMode = "OnSite"
	ModeVirtual InternshipMode = "Virtual"
	ModeFiverr  InternshipMode = "Fiverr"
	ModeUpwork  InternshipMode = "Upwork"
)

func (m InternshipMode) IsFreelance() bool { return m == ModeFiverr || m == ModeUpwork }

func (m InternshipMode) Valid() bool {
	switch m {
	case ModeOnSite, ModeVirtual, ModeFiverr, ModeUpwork:
		return true
	}
	return false
}

type ReportType string

const (
	ReportProposal   ReportType = "proposal"
	ReportProgress   ReportType = "progress"
	ReportFinal      ReportType = "final"
	ReportMid        ReportType = "mid"
	ReportSiteFinal  ReportType = "site-final"
	ReportReflective ReportType = "reflective"
)

// RequiresApproval tells whether a student may only submit this report once approved by the office.
func (t ReportType) RequiresApproval() bool {
	switch t {
	case ReportProgress, ReportFinal, ReportReflective:
		return true
	}
	return false
}

func (t ReportType) Valid() bool {
	switch t {
	case ReportProposal, ReportProgress, ReportFinal, ReportMid, ReportSiteFinal, ReportReflective:
		return true
	}
	return false
}

type ComplaintCategory string

const (
	ComplaintTechnical    ComplaintCategory = "Technical"
	ComplaintSupervisor   ComplaintCategory = "Supervisor"
	ComplaintOrganization ComplaintCategory = "Organization"
	ComplaintOther        ComplaintCategory = "Other"
)

type ComplaintStatus string

const (
	ComplaintOpen     ComplaintStatus = "open"
	ComplaintResolved ComplaintStatus = "resolved"
)

type RequestType string

const (
	RequestCompany RequestType = "company"
	RequestSite    RequestType = "site"
)

type Marks struct {
	Faculty       null.Float64 `json:"faculty"`
	Admin         null.Float64 `json:"admin"`
	Site          null.Float64 `json:"site"`
	AdminProposal null.Float64 `json:"adminProposal"`
	AdminLogs     null.Float64 `json:"adminLogs"`
	AdminFinal    null.Float64 `json:"adminFinal"`
}

type Student struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	RegistrationNo string         `json:"registrationNo,omitempty"`
	PasswordHash   []byte         `json:"passwordHash,omitempty"`
	AvatarBase64   string         `json:"avatarBase64,omitempty"`
	Bio            string         `json:"bio,omitempty"`
	Approved       bool           `json:"approved,omitempty"`
	EmailVerified  bool           `json:"emailVerified,omitempty"`
	FacultyID      string         `json:"facultyId,omitempty"`
	SiteID         string         `json:"siteId,omitempty"`
	CompanyID      string         `json:"companyId,omitempty"`
	InternshipMode InternshipMode `json:"internshipMode,omitempty"`
	Marks          Marks          `json:"marks"`
	CreatedAt      time.Time      `json:"createdAt"` // UTC
}

func (s *Student) SetPassword(pwd string) error {
	hash, err := hashPassword(pwd)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) bool { return checkPassword(s.PasswordHash, pwd) }

// Sanitized returns a copy without the password hash, safe to send to clients.
func (s Student) Sanitized() Student {
	s.PasswordHash = nil
	return s
}

type FacultySupervisor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Department     string    `json:"department,omitempty"`
	Designation    string    `json:"designation,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Office         string    `json:"office,omitempty"`
	Qualifications string    `json:"qualifications,omitempty"`
	Expertise      string    `json:"expertise,omitempty"`
	PasswordHash   []byte    `json:"passwordHash,omitempty"`
	AvatarBase64   string    `json:"avatarBase64,omitempty"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	UpdatedAt      null.Time `json:"updatedAt"`
}

func (f *FacultySupervisor) CheckPassword(pwd string) bool { return checkPassword(f.PasswordHash, pwd) }

func (f *FacultySupervisor) setPassword(pwd string) (err error) {
	f.PasswordHash, err = hashPassword(pwd)
	return err
}

func (f FacultySupervisor) Sanitized() FacultySupervisor {
	f.PasswordHash = nil
	return f
}

type SiteSupervisor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	CompanyID    string `json:"companyId,omitempty"`
	PasswordHash []byte `json:"passwordHash,omitempty"`
	AvatarBase64 string `json:"avatarBase64,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

func (s *SiteSupervisor) CheckPassword(pwd string) bool { return checkPassword(s.PasswordHash, pwd) }

func (s *SiteSupervisor) setPassword(pwd string) (err error) {
	s.PasswordHash, err = hashPassword(pwd)
	return err
}

func (s SiteSupervisor) Sanitized() SiteSupervisor {
	s.PasswordHash = nil
	return s
}

type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
	RemoteID    string `json:"remoteId,omitempty"`
}

// CompanyExtras holds the optional attributes of a Company.
type CompanyExtras struct {
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
	RemoteID    string `json:"remoteId,omitempty"`
}

type InternshipOfficer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AdminProfile struct {
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"` // legacy login
	PasswordHash []byte `json:"passwordHash,omitempty"`
	Name         string `json:"name,omitempty"`
	AvatarBase64 string `json:"avatarBase64,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

func (p *AdminProfile) CheckPassword(pwd string) bool { return checkPassword(p.PasswordHash, pwd) }

func (p *AdminProfile) setPassword(pwd string) (err error) {
	p.PasswordHash, err = hashPassword(pwd)
	return err
}

func (p AdminProfile) Sanitized() AdminProfile {
	p.PasswordHash = nil
	return p
}

type Announcement struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Title     string    `json:"title,omitempty"`
	Link      string    `json:"link,omitempty"`
	Pinned    bool      `json:"pinned,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type WeeklyLog struct {
	ID   string    `json:"id"`
	Week int       `json:"week"`
	Note string    `json:"note"`
	Date time.Time `json:"date"`
}

type Report struct {
	ID       string       `json:"id"`
	Type     ReportType   `json:"type"`
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Date     time.Time    `json:"date"`
	Score    null.Float64 `json:"score"`
	Approved null.Bool    `json:"approved"`
}

type (
	ApprovalStudentInfo struct {
		Name      string `json:"name"`
		StudentID string `json:"studentId"`
		Program   string `json:"program"`
		Semester  string `json:"semester"`
	}

	ApprovalCompany struct {
		Name            string `json:"name"`
		Address         string `json:"address"`
		SupervisorName  string `json:"supervisorName"`
		SupervisorEmail string `json:"supervisorEmail"`
		SupervisorPhone string `json:"supervisorPhone"`
	}

	ApprovalInternship struct {
		StartDate    string  `json:"startDate"` // yyyy-mm-dd
		EndDate      string  `json:"endDate"`
		HoursPerWeek float64 `json:"hoursPerWeek"`
		Paid         string  `json:"paid"` // Yes | No
	}

	NatureOfInternship struct {
		SoftwareDevelopment bool   `json:"softwareDevelopment"`
		DataScience         bool   `json:"dataScience"`
		Networking          bool   `json:"networking"`
		CyberSecurity       bool   `json:"cyberSecurity"`
		WebMobile           bool   `json:"webMobile"`
		OtherChecked        bool   `json:"otherChecked"`
		OtherText           string `json:"otherText"`
	}

	// AppExA is the internship approval form a student files with the internship office.
	AppExA struct {
		Organization       string              `json:"organization" validate:"required"`
		Address            string              `json:"address"`
		IndustrySector     string              `json:"industrySector,omitempty"`
		ContactName        string              `json:"contactName" validate:"required"`
		ContactDesignation string              `json:"contactDesignation,omitempty"`
		ContactPhone       string              `json:"contactPhone"`
		ContactEmail       string              `json:"contactEmail" validate:"required,contactemail"`
		InternshipField    string              `json:"internshipField,omitempty"`
		InternshipLocation string              `json:"internshipLocation,omitempty"`
		StartDate          string              `json:"startDate" validate:"required"`
		EndDate            string              `json:"endDate" validate:"required"`
		WorkingDays        string              `json:"workingDays,omitempty"`
		WorkingHours       string              `json:"workingHours,omitempty"`
		NumberOfPositions  int                 `json:"numberOfPositions,omitempty"`
		NatureOfInternship *NatureOfInternship `json:"natureOfInternship,omitempty"`
		Mode               string              `json:"mode,omitempty"` // On-Site | Virtual | Freelancing
	}

	// ApprovalData is what a student submits for review.
	ApprovalData struct {
		StudentInfo ApprovalStudentInfo `json:"studentInfo"`
		Company     ApprovalCompany     `json:"company"`
		Internship  ApprovalInternship  `json:"internship"`
		Objectives  string              `json:"objectives"`
		Outcomes    string              `json:"outcomes"`
		AppExA      *AppExA             `json:"appexA,omitempty"`
	}

	ApprovalForm struct {
		ID string `json:"id"`
		ApprovalData
		CreatedAt      time.Time    `json:"createdAt"`
		Status         ReviewStatus `json:"status"`
		OfficerComment string       `json:"officerComment,omitempty"`
		ResolvedAt     null.Time    `json:"resolvedAt"`
		Version        int          `json:"version"`
	}
)

// ApprovalFromAppExA fills the legacy approval sections from an AppEx-A form.
func ApprovalFromAppExA(ax AppExA, st Student) ApprovalData {
	return ApprovalData{
		StudentInfo: ApprovalStudentInfo{Name: st.Name, StudentID: st.RegistrationNo},
		Company: ApprovalCompany{
			Name:            ax.Organization,
			Address:         ax.Address,
			SupervisorName:  ax.ContactName,
			SupervisorEmail: ax.ContactEmail,
			SupervisorPhone: ax.ContactPhone,
		},
		Internship: ApprovalInternship{StartDate: ax.StartDate, EndDate: ax.EndDate},
		AppExA:     &ax,
	}
}

type (
	AgreementData struct {
		PolicyAcknowledgement    bool              `json:"policyAcknowledgement"`
		ConfidentialityAgreement bool              `json:"confidentialityAgreement"`
		SafetyTraining           bool              `json:"safetyTraining"`
		StudentSignatureName     string            `json:"studentSignatureName"`
		Date                     string            `json:"date"`
		StudentAgreementData     map[string]string `json:"studentAgreementData,omitempty"`
	}

	Agreement struct {
		ID string `json:"id"`
		AgreementData
		CreatedAt            time.Time `json:"createdAt"`
		FacultySignatureName string    `json:"facultySignatureName,omitempty"`
		FacultySignedAt      null.Time `json:"facultySignedAt"`
		OfficeSignatureName  string    `json:"officeSignatureName,omitempty"`
		OfficeSignedAt       null.Time `json:"officeSignedAt"`
	}
)

type (
	EvaluationData struct {
		Role     Role               `json:"role" validate:"required,oneof=faculty site admin"`
		Period   string             `json:"period" validate:"required,oneof=mid final overall"`
		Criteria map[string]float64 `json:"criteria"`
		Comments string             `json:"comments"`
		// Total defaults to the sum of Criteria when nil.
		Total *float64 `json:"total,omitempty"`
	}

	Evaluation struct {
		ID        string             `json:"id"`
		Role      Role               `json:"role"`
		Period    string             `json:"period"`
		Criteria  map[string]float64 `json:"criteria"`
		Comments  string             `json:"comments"`
		Total     float64            `json:"total"`
		CreatedAt time.Time          `json:"createdAt"`
	}
)

type (
	FreelanceData struct {
		Platform         InternshipMode `json:"platform" validate:"required,oneof=Fiverr Upwork OnSite Virtual"`
		ProfileAuthentic bool           `json:"profileAuthentic,omitempty"`
		ProposalsApplied float64        `json:"proposalsApplied,omitempty" validate:"gte=0"`
		GigsCompleted    float64        `json:"gigsCompleted,omitempty" validate:"gte=0"`
		EarningsUSD      float64        `json:"earningsUSD,omitempty" validate:"gte=0"`
		AvgRating        float64        `json:"avgRating,omitempty" validate:"gte=0"`
		ClientFeedback   string         `json:"clientFeedback,omitempty"`
		ApprovalEvidence string         `json:"approvalEvidence,omitempty"`
		ContractSummary  string         `json:"contractSummary,omitempty"`
		WorkSummary      string         `json:"workSummary,omitempty"`
		MentorName       string         `json:"mentorName,omitempty"`
		MentorContact    string         `json:"mentorContact,omitempty"`
		Technologies     string         `json:"technologies,omitempty"`
		Logbook          string         `json:"logbook,omitempty"`
	}

	FreelanceRecord struct {
		ID string `json:"id"`
		FreelanceData
		CreatedAt      time.Time    `json:"createdAt"`
		Status         ReviewStatus `json:"status"`
		OfficerComment string       `json:"officerComment,omitempty"`
		ResolvedAt     null.Time    `json:"resolvedAt"`
	}
)

type Complaint struct {
	ID         string            `json:"id"`
	StudentID  string            `json:"studentId"`
	Category   ComplaintCategory `json:"category"`
	Message    string            `json:"message"`
	Status     ComplaintStatus   `json:"status"`
	Response   string            `json:"response,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	ResolvedAt null.Time         `json:"resolvedAt"`
}

// RequestItem is a request to the internship office to list a company or a site supervisor.
type RequestItem struct {
	ID                   string       `json:"id"`
	Type                 RequestType  `json:"type"`
	Status               ReviewStatus `json:"status"`
	RequestedByFacultyID string       `json:"requestedByFacultyId,omitempty"`
	RequestedByStudentID string       `json:"requestedByStudentId,omitempty"`
	ResponseNote         string       `json:"responseNote,omitempty"`
	CreatedAt            time.Time    `json:"createdAt"`
	ResolvedAt           null.Time    `json:"resolvedAt"`

	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	// company requests made by students carry the full company details
	Extras        *CompanyExtras `json:"extras,omitempty"`
	Justification string         `json:"justification,omitempty"`

	// site requests
	Email       string `json:"email,omitempty"`
	CompanyID   string `json:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty"`

	CreatedCompanyID string `json:"createdCompanyId,omitempty"`
	CreatedSiteID    string `json:"createdSiteId,omitempty"`
}

type (
	DesignPlacement struct {
		Organization   string `json:"organization"`
		Mode           string `json:"mode" validate:"omitempty,oneof=On-site Remote Hybrid"`
		FunctionalArea string `json:"functionalArea"`
		Overview       string `json:"overview,omitempty"`
	}

	DesignSupervisor struct {
		Name        string `json:"name"`
		Designation string `json:"designation"`
		Email       string `json:"email"`
		Contact     string `json:"contact"`
	}

	DesignStatementData struct {
		CareerGoal           string           `json:"careerGoal"`
		LearningObjectives   string           `json:"learningObjectives"`
		Placement            DesignPlacement  `json:"placement"`
		Supervisor           DesignSupervisor `json:"supervisor"`
		ScopeAndDeliverables string           `json:"scopeAndDeliverables"`
		AcademicPreparation  string           `json:"academicPreparation"`
		Comments             string           `json:"comments,omitempty"`
	}

	DesignStatement struct {
		ID string `json:"id"`
		DesignStatementData
		CreatedAt time.Time `json:"createdAt"`
	}
)

type (
	NewAssignment struct {
		Title         string `json:"title,omitempty"`
		FileName      string `json:"fileName" validate:"required"`
		FileType      string `json:"fileType" validate:"required"`
		FileSize      int64  `json:"fileSize" validate:"required,gt=0"`
		ContentBase64 string `json:"contentBase64" validate:"required,base64"`
	}

	Assignment struct {
		ID       string `json:"id"`
		Title    string `json:"title,omitempty"`
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
		FileSize int64  `json:"fileSize"`
		// ContentBase64 is empty once the content is offloaded to the blob store under ContentKey.
		ContentBase64 string       `json:"contentBase64,omitempty"`
		ContentKey    string       `json:"contentKey,omitempty"`
		UploadedAt    time.Time    `json:"uploadedAt"`
		FacultyMark   null.Float64 `json:"facultyMark"`
	}
)

// Password hashing

var PasswordCost = bcrypt.DefaultCost // mockable

func hashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), PasswordCost)
}

func checkPassword(hash []byte, pwd string) bool {
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd)) == nil
}

func nullBool(b bool) null.Bool { return null.BoolFrom(b) }
