package portal

import (
	"slices"
	"strings"

	"github.com/volatiletech/null/v8"
)

type (
	NewStudent struct {
		Name           string
		Email          string
		Password       string
		RegistrationNo string
	}

	// StudentChanges holds the fields of a Student to modify; invalid (unset) fields are left as is.
	StudentChanges struct {
		Name           null.String `json:"name"`
		Email          null.String `json:"email"`
		RegistrationNo null.String `json:"registrationNo"`
		AvatarBase64   null.String `json:"avatarBase64"`
		Bio            null.String `json:"bio"`
		EmailVerified  null.Bool   `json:"emailVerified"`
	}
)

// Session

func (s *Store) CurrentUser() *Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.CurrentUser == nil {
		return nil
	}
	usr := *s.state.CurrentUser
	return &usr
}

func (s *Store) CurrentStudentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentStudentID
}

// LoginAsRole signs in a principal without identity.
func (s *Store) LoginAsRole(role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSessionLocked(Principal{Role: role})
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentUser = nil
	s.state.CurrentStudentID = ""
	s.commit(KeyCurrentUser, KeyCurrentStudentID)
}

func (s *Store) setSessionLocked(p Principal) {
	s.state.CurrentUser = &p
	s.state.CurrentStudentID = p.StudentID
	s.commit(KeyCurrentUser, KeyCurrentStudentID)
}

// Authenticate checks the credentials against the office account, then faculty, site supervisors and students.
// It does not touch the stored session.
func (s *Store) Authenticate(email, pwd string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if prof := s.state.AdminProfile; s.adminMatches(email) && prof.CheckPassword(pwd) {
		return Principal{Role: RoleAdmin, Email: prof.Email, Name: prof.Name}, nil
	}
	if f, ok := s.findFacultyLocked(email, pwd); ok {
		return Principal{Role: RoleFaculty, FacultyID: f.ID, Email: f.Email, Name: f.Name}, nil
	}
	if sup, ok := s.findSiteLocked(email, pwd); ok {
		return Principal{Role: RoleSiteSupervisor, SiteID: sup.ID, Email: sup.Email, Name: sup.Name}, nil
	}
	if st, ok := s.findStudentLocked(email, pwd); ok {
		return Principal{Role: RoleStudent, StudentID: st.ID, Email: st.Email, Name: st.Name}, nil
	}
	return Principal{}, ErrInvalidCredentials
}

// Principal rebuilds the principal of a record id, used when refreshing a session.
func (s *Store) Principal(role Role, id string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case role == RoleAdmin:
		prof := s.state.AdminProfile
		return Principal{Role: RoleAdmin, Email: prof.Email, Name: prof.Name}, nil
	case role == RoleFaculty:
		if i := s.facultyIndex(id); i >= 0 {
			f := s.state.FacultySupervisors[i]
			return Principal{Role: role, FacultyID: f.ID, Email: f.Email, Name: f.Name}, nil
		}
		return Principal{}, ErrFacultyNotFound
	case role == RoleSite || role == RoleSiteSupervisor:
		if i := s.siteIndex(id); i >= 0 {
			sup := s.state.SiteSupervisors[i]
			return Principal{Role: role, SiteID: sup.ID, Email: sup.Email, Name: sup.Name}, nil
		}
		return Principal{}, ErrSiteNotFound
	case role == RoleStudent:
		if i := s.studentIndex(id); i >= 0 {
			st := s.state.Students[i]
			return Principal{Role: role, StudentID: st.ID, Email: st.Email, Name: st.Name}, nil
		}
		return Principal{}, ErrStudentNotFound
	}
	return Principal{}, ErrInvalidRole
}

// EmailInUse tells whether any account already uses email.
func (s *Store) EmailInUse(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sameEmail(s.state.AdminProfile.Email, email) {
		return true
	}
	for _, f := range s.state.FacultySupervisors {
		if sameEmail(f.Email, email) {
			return true
		}
	}
	for _, sup := range s.state.SiteSupervisors {
		if sameEmail(sup.Email, email) {
			return true
		}
	}
	for _, st := range s.state.Students {
		if sameEmail(st.Email, email) {
			return true
		}
	}
	return false
}

// Students

func (s *Store) studentIndex(id string) int {
	return slices.IndexFunc(s.state.Students, func(st Student) bool { return st.ID == id })
}

func (s *Store) findStudentLocked(email, pwd string) (Student, bool) {
	for _, st := range s.state.Students {
		if sameEmail(st.Email, email) && st.CheckPassword(pwd) {
			return st, true
		}
	}
	return Student{}, false
}

func (s *Store) Students() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Students)
}

func (s *Store) Student(id string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.studentIndex(id); i >= 0 {
		return clone(s.state.Students[i]), nil
	}
	return Student{}, ErrStudentNotFound
}

func (s *Store) StudentByEmail(email string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.state.Students {
		if sameEmail(st.Email, email) {
			return clone(st), nil
		}
	}
	return Student{}, ErrStudentNotFound
}

// CreateStudent adds a student without any registration check.
func (s *Store) CreateStudent(ns NewStudent) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.createStudentLocked(ns)
	if err != nil {
		return Student{}, err
	}
	s.commit(KeyStudents)
	return clone(st), nil
}

func (s *Store) createStudentLocked(ns NewStudent) (Student, error) {
	st := Student{
		ID:             newID(),
		Name:           strings.TrimSpace(ns.Name),
		Email:          strings.ToLower(strings.TrimSpace(ns.Email)),
		RegistrationNo: strings.TrimSpace(ns.RegistrationNo),
		CreatedAt:      NowFunc(),
	}
	if ns.Password != "" {
		if err := st.SetPassword(ns.Password); err != nil {
			return Student{}, err
		}
	}
	s.state.Students = append(s.state.Students, st)
	return st, nil
}

// RegisterStudent applies the sign up rules and adds the student. The session is left as is.
func (s *Store) RegisterStudent(name, email, pwd, regNo string) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.registerLocked(name, email, pwd, regNo)
	if err != nil {
		return Student{}, err
	}
	s.commit(KeyStudents)
	return clone(st), nil
}

// Signup registers a student and signs them in.
func (s *Store) Signup(name, email, pwd, regNo string) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.registerLocked(name, email, pwd, regNo)
	if err != nil {
		return Student{}, err
	}
	s.dirty[KeyStudents] = true
	s.setSessionLocked(Principal{Role: RoleStudent, StudentID: st.ID, Email: st.Email, Name: st.Name})
	return clone(st), nil
}

func (s *Store) registerLocked(name, email, pwd, regNo string) (Student, error) {
	for _, st := range s.state.Students {
		if sameEmail(st.Email, email) {
			return Student{}, ErrEmailRegistered
		}
	}
	if err := CheckRegistration(regNo, email); err != nil {
		return Student{}, err
	}
	return s.createStudentLocked(NewStudent{Name: name, Email: email, Password: pwd, RegistrationNo: regNo})
}

// Login signs a student in.
func (s *Store) Login(email, pwd string) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.findStudentLocked(email, pwd)
	if !ok {
		return Student{}, ErrInvalidCredentials
	}
	s.setSessionLocked(Principal{Role: RoleStudent, StudentID: st.ID, Email: st.Email, Name: st.Name})
	return clone(st), nil
}

func (s *Store) UpdateStudent(id string, changes StudentChanges) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.studentIndex(id)
	if i < 0 {
		return Student{}, ErrStudentNotFound
	}
	st := &s.state.Students[i]
	if changes.Email.Valid {
		email := strings.ToLower(strings.TrimSpace(changes.Email.String))
		for _, other := range s.state.Students {
			if other.ID != id && sameEmail(other.Email, email) {
				return Student{}, ErrEmailRegistered
			}
		}
		st.Email = email
	}
	if changes.Name.Valid {
		st.Name = strings.TrimSpace(changes.Name.String)
	}
	if changes.RegistrationNo.Valid {
		st.RegistrationNo = strings.TrimSpace(changes.RegistrationNo.String)
	}
	if changes.AvatarBase64.Valid {
		st.AvatarBase64 = changes.AvatarBase64.String
	}
	if changes.Bio.Valid {
		st.Bio = changes.Bio.String
	}
	if changes.EmailVerified.Valid {
		st.EmailVerified = changes.EmailVerified.Bool
	}
	s.commit(KeyStudents)
	return clone(*st), nil
}

func (s *Store) ChangeStudentPassword(id, oldPwd, newPwd string) error {
	return s.updateStudent(id, func(st *Student) error {
		if !st.CheckPassword(oldPwd) {
			return ErrOldPasswordIncorrect
		}
		return st.SetPassword(newPwd)
	})
}

// SetStudentPassword replaces the password without checking the old one.
func (s *Store) SetStudentPassword(id, pwd string) error {
	return s.updateStudent(id, func(st *Student) error { return st.SetPassword(pwd) })
}

// updateStudent applies fn to the student with id and commits unless fn fails.
func (s *Store) updateStudent(id string, fn func(st *Student) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.studentIndex(id)
	if i < 0 {
		return ErrStudentNotFound
	}
	if err := fn(&s.state.Students[i]); err != nil {
		return err
	}
	s.commit(KeyStudents)
	return nil
}

// Admin actions

func (s *Store) ApproveStudent(id string) error {
	return s.updateStudent(id, func(st *Student) error {
		st.Approved = true
		return nil
	})
}

func (s *Store) AssignSupervisors(studentID, facultyID, siteID string) error {
	return s.updateStudent(studentID, func(st *Student) error {
		if facultyID != "" && s.facultyIndex(facultyID) < 0 {
			return ErrFacultyNotFound
		}
		if siteID != "" && s.siteIndex(siteID) < 0 {
			return ErrSiteNotFound
		}
		st.FacultyID = facultyID
		st.SiteID = siteID
		return nil
	})
}

func (s *Store) SetInternshipMode(studentID string, mode InternshipMode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	return s.updateStudent(studentID, func(st *Student) error {
		st.InternshipMode = mode
		return nil
	})
}

func (s *Store) AssignCompany(studentID, companyID string) error {
	return s.updateStudent(studentID, func(st *Student) error {
		if companyID != "" && s.companyIndex(companyID) < 0 {
			return ErrCompanyNotFound
		}
		st.CompanyID = companyID
		return nil
	})
}

func (s *Store) SetAdminMarks(studentID string, mark float64) error {
	return s.updateStudent(studentID, func(st *Student) error {
		st.Marks.Admin = null.Float64From(mark)
		return nil
	})
}

// SetAdminSubMarks stores the three office sub marks. Their sum, doubled for freelance internships, is the admin mark.
func (s *Store) SetAdminSubMarks(studentID string, proposal, logs, final float64) error {
	return s.updateStudent(studentID, func(st *Student) error {
		sum := proposal + logs + final
		if st.InternshipMode.IsFreelance() {
			sum *= 2
		}
		st.Marks.Admin = null.Float64From(sum)
		st.Marks.AdminProposal = null.Float64From(proposal)
		st.Marks.AdminLogs = null.Float64From(logs)
		st.Marks.AdminFinal = null.Float64From(final)
		return nil
	})
}

func (s *Store) SetFacultyMarks(studentID string, mark float64) error {
	return s.updateStudent(studentID, func(st *Student) error {
		st.Marks.Faculty = null.Float64From(mark)
		return nil
	})
}

func (s *Store) SetSiteMarks(studentID string, mark float64) error {
	return s.updateStudent(studentID, func(st *Student) error {
		st.Marks.Site = null.Float64From(mark)
		return nil
	})
}
