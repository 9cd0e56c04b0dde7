package portal

import (
	"slices"
	"strings"

	"github.com/volatiletech/null/v8"
)

type (
	FacultyChanges struct {
		Name           null.String `json:"name"`
		Email          null.String `json:"email"`
		Department     null.String `json:"department"`
		Designation    null.String `json:"designation"`
		Phone          null.String `json:"phone"`
		Office         null.String `json:"office"`
		Qualifications null.String `json:"qualifications"`
		Expertise      null.String `json:"expertise"`
		AvatarBase64   null.String `json:"avatarBase64"`
		AvatarURL      null.String `json:"avatarUrl"`
		Bio            null.String `json:"bio"`
	}

	CompanyChanges struct {
		Name        null.String `json:"name"`
		Address     null.String `json:"address"`
		Email       null.String `json:"email"`
		Phone       null.String `json:"phone"`
		Website     null.String `json:"website"`
		Industry    null.String `json:"industry"`
		Description null.String `json:"description"`
		RemoteID    null.String `json:"remoteId"`
	}

	SiteChanges struct {
		Name         null.String `json:"name"`
		Email        null.String `json:"email"`
		CompanyID    null.String `json:"companyId"`
		AvatarBase64 null.String `json:"avatarBase64"`
		Bio          null.String `json:"bio"`
	}

	OfficerChanges struct {
		Name  null.String `json:"name"`
		Email null.String `json:"email"`
	}

	NewAnnouncement struct {
		Message string `json:"message" validate:"required"`
		Title   string `json:"title"`
		Link    string `json:"link" validate:"omitempty,url"`
		Pinned  bool   `json:"pinned"`
	}

	AnnouncementChanges struct {
		Message null.String `json:"message"`
		Title   null.String `json:"title"`
		Link    null.String `json:"link"`
		Pinned  null.Bool   `json:"pinned"`
	}

	AdminChanges struct {
		Email        null.String `json:"email"`
		Username     null.String `json:"username"`
		Name         null.String `json:"name"`
		AvatarBase64 null.String `json:"avatarBase64"`
		Bio          null.String `json:"bio"`
	}

	// NewCompanyRequest is a student request to list a company.
	NewCompanyRequest struct {
		Name          string `json:"name" validate:"required"`
		Email         string `json:"email" validate:"required,email"`
		Phone         string `json:"phone"`
		Address       string `json:"address"`
		Website       string `json:"website"`
		Industry      string `json:"industry"`
		Description   string `json:"description"`
		Justification string `json:"justification"`
	}
)

func setString(dst *string, v null.String) {
	if v.Valid {
		*dst = strings.TrimSpace(v.String)
	}
}

func setEmail(dst *string, v null.String) {
	if v.Valid {
		*dst = strings.ToLower(strings.TrimSpace(v.String))
	}
}

// Faculty supervisors

func (s *Store) facultyIndex(id string) int {
	return slices.IndexFunc(s.state.FacultySupervisors, func(f FacultySupervisor) bool { return f.ID == id })
}

func (s *Store) findFacultyLocked(email, pwd string) (FacultySupervisor, bool) {
	for _, f := range s.state.FacultySupervisors {
		if sameEmail(f.Email, email) && f.CheckPassword(pwd) {
			return f, true
		}
	}
	return FacultySupervisor{}, false
}

func (s *Store) FacultySupervisors() []FacultySupervisor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.FacultySupervisors)
}

func (s *Store) FacultySupervisor(id string) (FacultySupervisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.facultyIndex(id); i >= 0 {
		return clone(s.state.FacultySupervisors[i]), nil
	}
	return FacultySupervisor{}, ErrFacultyNotFound
}

// AddFacultySupervisor adds a faculty supervisor; pwd may be empty, in which case the account cannot sign in.
// Emails are not checked here: create-account owns the cross-role uniqueness check.
func (s *Store) AddFacultySupervisor(name, email, department, pwd string) (FacultySupervisor, error) {
	f := FacultySupervisor{
		ID:         newID(),
		Name:       strings.TrimSpace(name),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Department: strings.TrimSpace(department),
	}
	if pwd != "" {
		hash, err := hashPassword(pwd)
		if err != nil {
			return FacultySupervisor{}, err
		}
		f.PasswordHash = hash
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.FacultySupervisors = append(s.state.FacultySupervisors, f)
	s.commit(KeyFacultySupervisors)
	return clone(f), nil
}

func (s *Store) updateFaculty(id string, fn func(f *FacultySupervisor) error) (FacultySupervisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.facultyIndex(id)
	if i < 0 {
		return FacultySupervisor{}, ErrFacultyNotFound
	}
	f := &s.state.FacultySupervisors[i]
	if err := fn(f); err != nil {
		return FacultySupervisor{}, err
	}
	f.UpdatedAt = null.TimeFrom(NowFunc())
	s.commit(KeyFacultySupervisors)
	return clone(*f), nil
}

func (s *Store) UpdateFacultySupervisor(id string, changes FacultyChanges) (FacultySupervisor, error) {
	return s.updateFaculty(id, func(f *FacultySupervisor) error {
		setString(&f.Name, changes.Name)
		setEmail(&f.Email, changes.Email)
		setString(&f.Department, changes.Department)
		setString(&f.Designation, changes.Designation)
		setString(&f.Phone, changes.Phone)
		setString(&f.Office, changes.Office)
		setString(&f.Qualifications, changes.Qualifications)
		setString(&f.Expertise, changes.Expertise)
		setString(&f.AvatarBase64, changes.AvatarBase64)
		setString(&f.AvatarURL, changes.AvatarURL)
		setString(&f.Bio, changes.Bio)
		return nil
	})
}

// RemoveFacultySupervisor deletes the supervisor and unassigns it from its students.
func (s *Store) RemoveFacultySupervisor(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.facultyIndex(id)
	if i < 0 {
		return ErrFacultyNotFound
	}
	s.state.FacultySupervisors = slices.Delete(s.state.FacultySupervisors, i, i+1)
	for j := range s.state.Students {
		if s.state.Students[j].FacultyID == id {
			s.state.Students[j].FacultyID = ""
		}
	}
	s.commit(KeyFacultySupervisors, KeyStudents)
	return nil
}

// LoginFaculty signs a faculty supervisor in.
func (s *Store) LoginFaculty(email, pwd string) (FacultySupervisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.findFacultyLocked(email, pwd)
	if !ok {
		return FacultySupervisor{}, ErrInvalidFacultyCredentials
	}
	s.setSessionLocked(Principal{Role: RoleFaculty, FacultyID: f.ID, Email: f.Email, Name: f.Name})
	return clone(f), nil
}

func (s *Store) ChangeFacultyPassword(id, oldPwd, newPwd string) error {
	_, err := s.updateFaculty(id, func(f *FacultySupervisor) error {
		if !f.CheckPassword(oldPwd) {
			return ErrOldPasswordIncorrect
		}
		return f.setPassword(newPwd)
	})
	return err
}

func (s *Store) SetFacultyPassword(id, pwd string) error {
	_, err := s.updateFaculty(id, func(f *FacultySupervisor) error { return f.setPassword(pwd) })
	return err
}

// Companies

func (s *Store) companyIndex(id string) int {
	return slices.IndexFunc(s.state.Companies, func(c Company) bool { return c.ID == id })
}

func (s *Store) Companies() []Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Companies)
}

func (s *Store) Company(id string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.companyIndex(id); i >= 0 {
		return s.state.Companies[i], nil
	}
	return Company{}, ErrCompanyNotFound
}

// AddCompany adds a company and returns its id.
func (s *Store) AddCompany(name, address string, extras *CompanyExtras) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", newFieldError("name", "this field is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.addCompanyLocked(name, address, extras)
	s.commit(KeyCompanies)
	return id, nil
}

func (s *Store) addCompanyLocked(name, address string, extras *CompanyExtras) string {
	c := Company{ID: newID(), Name: strings.TrimSpace(name), Address: strings.TrimSpace(address)}
	if extras != nil {
		c.Email = strings.ToLower(strings.TrimSpace(extras.Email))
		c.Phone = extras.Phone
		c.Website = extras.Website
		c.Industry = extras.Industry
		c.Description = extras.Description
		c.RemoteID = extras.RemoteID
	}
	s.state.Companies = append(s.state.Companies, c)
	return c.ID
}

func (s *Store) UpdateCompany(id string, changes CompanyChanges) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.companyIndex(id)
	if i < 0 {
		return Company{}, ErrCompanyNotFound
	}
	c := &s.state.Companies[i]
	setString(&c.Name, changes.Name)
	setString(&c.Address, changes.Address)
	setEmail(&c.Email, changes.Email)
	setString(&c.Phone, changes.Phone)
	setString(&c.Website, changes.Website)
	setString(&c.Industry, changes.Industry)
	setString(&c.Description, changes.Description)
	setString(&c.RemoteID, changes.RemoteID)
	s.commit(KeyCompanies)
	return *c, nil
}

// RemoveCompany deletes the company and unlinks it from site supervisors and students.
func (s *Store) RemoveCompany(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.companyIndex(id)
	if i < 0 {
		return ErrCompanyNotFound
	}
	s.state.Companies = slices.Delete(s.state.Companies, i, i+1)
	for j := range s.state.SiteSupervisors {
		if s.state.SiteSupervisors[j].CompanyID == id {
			s.state.SiteSupervisors[j].CompanyID = ""
		}
	}
	for j := range s.state.Students {
		if s.state.Students[j].CompanyID == id {
			s.state.Students[j].CompanyID = ""
		}
	}
	s.commit(KeyCompanies, KeySiteSupervisors, KeyStudents)
	return nil
}

// Site supervisors

func (s *Store) siteIndex(id string) int {
	return slices.IndexFunc(s.state.SiteSupervisors, func(sup SiteSupervisor) bool { return sup.ID == id })
}

func (s *Store) findSiteLocked(email, pwd string) (SiteSupervisor, bool) {
	for _, sup := range s.state.SiteSupervisors {
		if sameEmail(sup.Email, email) && sup.CheckPassword(pwd) {
			return sup, true
		}
	}
	return SiteSupervisor{}, false
}

func (s *Store) SiteSupervisors() []SiteSupervisor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.SiteSupervisors)
}

func (s *Store) SiteSupervisor(id string) (SiteSupervisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.siteIndex(id); i >= 0 {
		return clone(s.state.SiteSupervisors[i]), nil
	}
	return SiteSupervisor{}, ErrSiteNotFound
}

func (s *Store) SiteSupervisorsByCompany(companyID string) []SiteSupervisor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sups []SiteSupervisor
	for _, sup := range s.state.SiteSupervisors {
		if sup.CompanyID == companyID {
			sups = append(sups, sup)
		}
	}
	return cloneList(sups)
}

// AddSiteSupervisor adds a site supervisor and returns its id.
func (s *Store) AddSiteSupervisor(name, email, companyID, pwd string) (string, error) {
	var hash []byte
	if pwd != "" {
		var err error
		if hash, err = hashPassword(pwd); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if companyID != "" && s.companyIndex(companyID) < 0 {
		return "", ErrCompanyNotFound
	}
	id := s.addSiteLocked(name, email, companyID, hash)
	s.commit(KeySiteSupervisors)
	return id, nil
}

func (s *Store) addSiteLocked(name, email, companyID string, hash []byte) string {
	sup := SiteSupervisor{
		ID:           newID(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		CompanyID:    companyID,
		PasswordHash: hash,
	}
	s.state.SiteSupervisors = append(s.state.SiteSupervisors, sup)
	return sup.ID
}

func (s *Store) updateSite(id string, fn func(sup *SiteSupervisor) error) (SiteSupervisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.siteIndex(id)
	if i < 0 {
		return SiteSupervisor{}, ErrSiteNotFound
	}
	sup := &s.state.SiteSupervisors[i]
	if err := fn(sup); err != nil {
		return SiteSupervisor{}, err
	}
	s.commit(KeySiteSupervisors)
	return clone(*sup), nil
}

func (s *Store) UpdateSiteSupervisor(id string, changes SiteChanges) (SiteSupervisor, error) {
	return s.updateSite(id, func(sup *SiteSupervisor) error {
		if changes.CompanyID.Valid && changes.CompanyID.String != "" && s.companyIndex(changes.CompanyID.String) < 0 {
			return ErrCompanyNotFound
		}
		setString(&sup.Name, changes.Name)
		setEmail(&sup.Email, changes.Email)
		setString(&sup.CompanyID, changes.CompanyID)
		setString(&sup.AvatarBase64, changes.AvatarBase64)
		setString(&sup.Bio, changes.Bio)
		return nil
	})
}

// RemoveSiteSupervisor deletes the supervisor and unassigns it from its students.
func (s *Store) RemoveSiteSupervisor(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.siteIndex(id)
	if i < 0 {
		return ErrSiteNotFound
	}
	s.state.SiteSupervisors = slices.Delete(s.state.SiteSupervisors, i, i+1)
	for j := range s.state.Students {
		if s.state.Students[j].SiteID == id {
			s.state.Students[j].SiteID = ""
		}
	}
	s.commit(KeySiteSupervisors, KeyStudents)
	return nil
}

// LoginSite signs a site supervisor in.
func (s *Store) LoginSite(email, pwd string) (SiteSupervisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup, ok := s.findSiteLocked(email, pwd)
	if !ok {
		return SiteSupervisor{}, ErrInvalidSiteCredentials
	}
	s.setSessionLocked(Principal{Role: RoleSiteSupervisor, SiteID: sup.ID, Email: sup.Email, Name: sup.Name})
	return clone(sup), nil
}

func (s *Store) ChangeSitePassword(id, oldPwd, newPwd string) error {
	_, err := s.updateSite(id, func(sup *SiteSupervisor) error {
		if !sup.CheckPassword(oldPwd) {
			return ErrOldPasswordIncorrect
		}
		return sup.setPassword(newPwd)
	})
	return err
}

func (s *Store) SetSitePassword(id, pwd string) error {
	_, err := s.updateSite(id, func(sup *SiteSupervisor) error { return sup.setPassword(pwd) })
	return err
}

// Internship officers

func (s *Store) InternshipOfficers() []InternshipOfficer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Officers)
}

func (s *Store) AddInternshipOfficer(name, email string) (InternshipOfficer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := InternshipOfficer{ID: newID(), Name: strings.TrimSpace(name), Email: strings.ToLower(strings.TrimSpace(email))}
	s.state.Officers = append(s.state.Officers, o)
	s.commit(KeyOfficers)
	return o, nil
}

func (s *Store) UpdateInternshipOfficer(id string, changes OfficerChanges) (InternshipOfficer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Officers, func(o InternshipOfficer) bool { return o.ID == id })
	if i < 0 {
		return InternshipOfficer{}, ErrOfficerNotFound
	}
	o := &s.state.Officers[i]
	setString(&o.Name, changes.Name)
	setEmail(&o.Email, changes.Email)
	s.commit(KeyOfficers)
	return *o, nil
}

func (s *Store) RemoveInternshipOfficer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Officers, func(o InternshipOfficer) bool { return o.ID == id })
	if i < 0 {
		return ErrOfficerNotFound
	}
	s.state.Officers = slices.Delete(s.state.Officers, i, i+1)
	s.commit(KeyOfficers)
	return nil
}

// Announcements

func (s *Store) Announcements() []Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Announcements)
}

// AddAnnouncement puts a new announcement first.
func (s *Store) AddAnnouncement(na NewAnnouncement) (Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := Announcement{
		ID:        newID(),
		Message:   strings.TrimSpace(na.Message),
		Title:     strings.TrimSpace(na.Title),
		Link:      strings.TrimSpace(na.Link),
		Pinned:    na.Pinned,
		CreatedAt: NowFunc(),
	}
	s.state.Announcements = slices.Insert(s.state.Announcements, 0, a)
	s.commit(KeyAnnouncements)
	return a, nil
}

func (s *Store) UpdateAnnouncement(id string, changes AnnouncementChanges) (Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Announcements, func(a Announcement) bool { return a.ID == id })
	if i < 0 {
		return Announcement{}, ErrAnnouncementNotFound
	}
	a := &s.state.Announcements[i]
	setString(&a.Message, changes.Message)
	setString(&a.Title, changes.Title)
	setString(&a.Link, changes.Link)
	if changes.Pinned.Valid {
		a.Pinned = changes.Pinned.Bool
	}
	s.commit(KeyAnnouncements)
	return *a, nil
}

func (s *Store) RemoveAnnouncement(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Announcements, func(a Announcement) bool { return a.ID == id })
	if i < 0 {
		return ErrAnnouncementNotFound
	}
	s.state.Announcements = slices.Delete(s.state.Announcements, i, i+1)
	s.commit(KeyAnnouncements)
	return nil
}

// Requests

func (s *Store) Requests() []RequestItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Requests)
}

func (s *Store) RequestsByStudent(studentID string) []RequestItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reqs []RequestItem
	for _, r := range s.state.Requests {
		if r.RequestedByStudentID == studentID {
			reqs = append(reqs, r)
		}
	}
	return cloneList(reqs)
}

func (s *Store) RequestsByFaculty(facultyID string) []RequestItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reqs []RequestItem
	for _, r := range s.state.Requests {
		if r.RequestedByFacultyID == facultyID {
			reqs = append(reqs, r)
		}
	}
	return cloneList(reqs)
}

func (s *Store) prependRequestLocked(r RequestItem) RequestItem {
	r.ID = newID()
	r.Status = StatusPending
	r.CreatedAt = NowFunc()
	s.state.Requests = slices.Insert(s.state.Requests, 0, r)
	s.commit(KeyRequests)
	return clone(r)
}

// RequestAddCompany files a faculty request to list a company.
func (s *Store) RequestAddCompany(facultyID, name, address string) (RequestItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prependRequestLocked(RequestItem{
		Type:                 RequestCompany,
		RequestedByFacultyID: facultyID,
		Name:                 strings.TrimSpace(name),
		Address:              strings.TrimSpace(address),
	}), nil
}

// RequestCompanyByStudent files a student request to list a company with all its details.
func (s *Store) RequestCompanyByStudent(studentID string, nr NewCompanyRequest) (RequestItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return RequestItem{}, err
	}
	return s.prependRequestLocked(RequestItem{
		Type:                 RequestCompany,
		RequestedByStudentID: studentID,
		Name:                 strings.TrimSpace(nr.Name),
		Address:              strings.TrimSpace(nr.Address),
		Justification:        strings.TrimSpace(nr.Justification),
		Extras: &CompanyExtras{
			Email:       strings.ToLower(strings.TrimSpace(nr.Email)),
			Phone:       strings.TrimSpace(nr.Phone),
			Website:     strings.TrimSpace(nr.Website),
			Industry:    strings.TrimSpace(nr.Industry),
			Description: strings.TrimSpace(nr.Description),
		},
	}), nil
}

// RequestAddSiteSupervisor files a faculty request to list a site supervisor, at an existing or a new company.
func (s *Store) RequestAddSiteSupervisor(facultyID, name, email, companyID, companyName string) (RequestItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prependRequestLocked(RequestItem{
		Type:                 RequestSite,
		RequestedByFacultyID: facultyID,
		Name:                 strings.TrimSpace(name),
		Email:                strings.ToLower(strings.TrimSpace(email)),
		CompanyID:            companyID,
		CompanyName:          strings.TrimSpace(companyName),
	}), nil
}

func (s *Store) pendingRequestLocked(id string) (*RequestItem, error) {
	i := slices.IndexFunc(s.state.Requests, func(r RequestItem) bool { return r.ID == id })
	if i < 0 {
		return nil, ErrRequestNotFound
	}
	if s.state.Requests[i].Status != StatusPending {
		return nil, ErrNotPending
	}
	return &s.state.Requests[i], nil
}

// ApproveRequest creates what a pending request asks for.
// A site request without a company id reuses the company of the same name, or creates it.
func (s *Store) ApproveRequest(id string) (RequestItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, err := s.pendingRequestLocked(id)
	if err != nil {
		return RequestItem{}, err
	}

	keys := []string{KeyRequests}
	switch req.Type {
	case RequestCompany:
		req.CreatedCompanyID = s.addCompanyLocked(req.Name, req.Address, req.Extras)
		keys = append(keys, KeyCompanies)
	case RequestSite:
		compID := req.CompanyID
		if compID == "" && req.CompanyName != "" {
			for _, c := range s.state.Companies {
				if strings.EqualFold(c.Name, req.CompanyName) {
					compID = c.ID
					break
				}
			}
			if compID == "" {
				compID = s.addCompanyLocked(req.CompanyName, "", nil)
				keys = append(keys, KeyCompanies)
			}
		}
		req.CreatedSiteID = s.addSiteLocked(req.Name, req.Email, compID, nil)
		req.CreatedCompanyID = compID
		keys = append(keys, KeySiteSupervisors)
	}
	req.Status = StatusApproved
	req.ResolvedAt = null.TimeFrom(NowFunc())
	s.commit(keys...)
	return clone(*req), nil
}

func (s *Store) RejectRequest(id, note string) (RequestItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, err := s.pendingRequestLocked(id)
	if err != nil {
		return RequestItem{}, err
	}
	req.Status = StatusRejected
	req.ResponseNote = strings.TrimSpace(note)
	req.ResolvedAt = null.TimeFrom(NowFunc())
	s.commit(KeyRequests)
	return clone(*req), nil
}

// Complaints

func (s *Store) Complaints() []Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Complaints)
}

func (s *Store) ComplaintsByStudent(studentID string) []Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cs []Complaint
	for _, c := range s.state.Complaints {
		if c.StudentID == studentID {
			cs = append(cs, c)
		}
	}
	return cloneList(cs)
}

// SubmitComplaint puts a new open complaint first.
func (s *Store) SubmitComplaint(studentID string, category ComplaintCategory, message string) (Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return Complaint{}, err
	}
	c := Complaint{
		ID:        newID(),
		StudentID: studentID,
		Category:  category,
		Message:   strings.TrimSpace(message),
		Status:    ComplaintOpen,
		CreatedAt: NowFunc(),
	}
	s.state.Complaints = slices.Insert(s.state.Complaints, 0, c)
	s.commit(KeyComplaints)
	return c, nil
}

func (s *Store) ResolveComplaint(id, response string) (Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Complaints, func(c Complaint) bool { return c.ID == id })
	if i < 0 {
		return Complaint{}, ErrComplaintNotFound
	}
	c := &s.state.Complaints[i]
	c.Status = ComplaintResolved
	c.Response = strings.TrimSpace(response)
	c.ResolvedAt = null.TimeFrom(NowFunc())
	s.commit(KeyComplaints)
	return *c, nil
}

// Admin profile

func (s *Store) adminMatches(login string) bool {
	prof := s.state.AdminProfile
	return (prof.Email != "" && sameEmail(prof.Email, login)) || (prof.Username != "" && prof.Username == login)
}

func (s *Store) AdminProfile() AdminProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.state.AdminProfile)
}

func (s *Store) UpdateAdminProfile(changes AdminChanges) (AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prof := &s.state.AdminProfile
	setEmail(&prof.Email, changes.Email)
	setString(&prof.Username, changes.Username)
	setString(&prof.Name, changes.Name)
	setString(&prof.AvatarBase64, changes.AvatarBase64)
	setString(&prof.Bio, changes.Bio)
	s.commit(KeyAdminProfile)
	return clone(*prof), nil
}

// LoginAdmin signs the office in by email, or by the legacy username.
func (s *Store) LoginAdmin(login, pwd string) (AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prof := s.state.AdminProfile
	if !s.adminMatches(login) || !prof.CheckPassword(pwd) {
		return AdminProfile{}, ErrInvalidAdminCredentials
	}
	s.setSessionLocked(Principal{Role: RoleAdmin, Email: prof.Email, Name: prof.Name})
	return clone(prof), nil
}

func (s *Store) ChangeAdminPassword(oldPwd, newPwd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.AdminProfile.CheckPassword(oldPwd) {
		return ErrOldPasswordIncorrect
	}
	if err := s.state.AdminProfile.setPassword(newPwd); err != nil {
		return err
	}
	s.commit(KeyAdminProfile)
	return nil
}

func (s *Store) SetAdminPassword(pwd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.AdminProfile.setPassword(pwd); err != nil {
		return err
	}
	s.commit(KeyAdminProfile)
	return nil
}
