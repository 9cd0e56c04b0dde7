package portal

import (
	"context"
	"encoding/base64"
	"path"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

type (
	NewWeeklyLog struct {
		Week int    `json:"week" validate:"required,gt=0"`
		Note string `json:"note" validate:"required"`
	}

	NewReport struct {
		Type    ReportType `json:"type" validate:"required,oneof=proposal progress final mid site-final reflective"`
		Title   string     `json:"title" validate:"required"`
		Content string     `json:"content" validate:"required"`
	}
)

func appendRecord[T any](m *map[string][]T, studentID string, rec T) {
	if *m == nil {
		*m = make(map[string][]T)
	}
	(*m)[studentID] = append((*m)[studentID], rec)
}

func (s *Store) requireStudent(id string) error {
	if s.studentIndex(id) < 0 {
		return ErrStudentNotFound
	}
	return nil
}

// Weekly logs

func (s *Store) SubmitWeeklyLog(studentID string, nl NewWeeklyLog) (WeeklyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return WeeklyLog{}, err
	}
	entry := WeeklyLog{ID: newID(), Week: nl.Week, Note: strings.TrimSpace(nl.Note), Date: NowFunc()}
	appendRecord(&s.state.Logs, studentID, entry)
	s.commit(KeyLogs)
	return entry, nil
}

func (s *Store) Logs(studentID string) []WeeklyLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Logs[studentID])
}

// Reports

func (s *Store) SubmitReport(studentID string, nr NewReport) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return Report{}, err
	}
	entry := Report{ID: newID(), Type: nr.Type, Title: strings.TrimSpace(nr.Title), Content: nr.Content, Date: NowFunc()}
	appendRecord(&s.state.Reports, studentID, entry)
	s.commit(KeyReports)
	return entry, nil
}

func (s *Store) Reports(studentID string) []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Reports[studentID])
}

func (s *Store) updateReport(studentID, reportID string, fn func(r *Report)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.state.Reports[studentID]
	i := slices.IndexFunc(list, func(r Report) bool { return r.ID == reportID })
	if i < 0 {
		return ErrReportNotFound
	}
	fn(&list[i])
	s.commit(KeyReports)
	return nil
}

func (s *Store) SetReportScore(studentID, reportID string, score float64) error {
	return s.updateReport(studentID, reportID, func(r *Report) { r.Score = null.Float64From(score) })
}

func (s *Store) SetReportApproved(studentID, reportID string, approved bool) error {
	return s.updateReport(studentID, reportID, func(r *Report) { r.Approved = null.BoolFrom(approved) })
}

// Approvals

// SubmitApproval appends a pending approval, versioned after the latest one.
func (s *Store) SubmitApproval(studentID string, data ApprovalData) (ApprovalForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return ApprovalForm{}, err
	}
	var version int
	if list := s.state.Approvals[studentID]; len(list) > 0 {
		version = list[len(list)-1].Version
	}
	entry := ApprovalForm{
		ID:           newID(),
		ApprovalData: data,
		CreatedAt:    NowFunc(),
		Status:       StatusPending,
		Version:      version + 1,
	}
	appendRecord(&s.state.Approvals, studentID, entry)
	s.commit(KeyApprovals)
	return clone(entry), nil
}

func (s *Store) Approvals(studentID string) []ApprovalForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Approvals[studentID])
}

func (s *Store) LatestApproval(studentID string) (ApprovalForm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.state.Approvals[studentID]
	if len(list) == 0 {
		return ApprovalForm{}, ErrApprovalNotFound
	}
	return clone(list[len(list)-1]), nil
}

// ReviewApproval decides the latest approval of a student. Approving it also approves the student.
// Repeating the decision already taken changes nothing.
func (s *Store) ReviewApproval(studentID string, decision ReviewStatus, comment string) (ApprovalForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.state.Approvals[studentID]
	if len(list) == 0 {
		return ApprovalForm{}, ErrApprovalNotFound
	}
	last := &list[len(list)-1]
	next, changed, err := last.Status.Transition(decision)
	if err != nil {
		return ApprovalForm{}, err
	}
	if !changed {
		return clone(*last), nil
	}
	last.Status = next
	last.OfficerComment = strings.TrimSpace(comment)
	last.ResolvedAt = null.TimeFrom(NowFunc())
	keys := []string{KeyApprovals}
	if next == StatusApproved {
		if i := s.studentIndex(studentID); i >= 0 {
			s.state.Students[i].Approved = true
			keys = append(keys, KeyStudents)
		}
	}
	s.commit(keys...)
	return clone(*last), nil
}

// UpdateLatestApproval replaces the content of the latest approval while it is still pending.
func (s *Store) UpdateLatestApproval(studentID string, data ApprovalData) (ApprovalForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.state.Approvals[studentID]
	if len(list) == 0 {
		return ApprovalForm{}, ErrApprovalNotFound
	}
	last := &list[len(list)-1]
	if last.Status != StatusPending {
		return ApprovalForm{}, ErrNotPending
	}
	last.ApprovalData = data
	s.commit(KeyApprovals)
	return clone(*last), nil
}

// Agreements

func (s *Store) SubmitAgreement(studentID string, data AgreementData) (Agreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return Agreement{}, err
	}
	entry := Agreement{ID: newID(), AgreementData: data, CreatedAt: NowFunc()}
	appendRecord(&s.state.Agreements, studentID, entry)
	s.commit(KeyAgreements)
	return clone(entry), nil
}

func (s *Store) Agreements(studentID string) []Agreement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Agreements[studentID])
}

func (s *Store) signLatestAgreement(studentID string, fn func(a *Agreement)) (Agreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.state.Agreements[studentID]
	if len(list) == 0 {
		return Agreement{}, ErrAgreementNotFound
	}
	last := &list[len(list)-1]
	fn(last)
	s.commit(KeyAgreements)
	return clone(*last), nil
}

func (s *Store) SignAgreementByFaculty(studentID, signer string) (Agreement, error) {
	return s.signLatestAgreement(studentID, func(a *Agreement) {
		a.FacultySignatureName = strings.TrimSpace(signer)
		a.FacultySignedAt = null.TimeFrom(NowFunc())
	})
}

func (s *Store) SignAgreementByOffice(studentID, signer string) (Agreement, error) {
	return s.signLatestAgreement(studentID, func(a *Agreement) {
		a.OfficeSignatureName = strings.TrimSpace(signer)
		a.OfficeSignedAt = null.TimeFrom(NowFunc())
	})
}

// Evaluations

func (s *Store) SubmitEvaluation(studentID string, data EvaluationData) (Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return Evaluation{}, err
	}
	var total float64
	if data.Total != nil {
		total = *data.Total
	} else {
		for _, v := range data.Criteria {
			total += v
		}
	}
	entry := Evaluation{
		ID:        newID(),
		Role:      data.Role,
		Period:    data.Period,
		Criteria:  data.Criteria,
		Comments:  strings.TrimSpace(data.Comments),
		Total:     total,
		CreatedAt: NowFunc(),
	}
	appendRecord(&s.state.Evaluations, studentID, entry)
	s.commit(KeyEvaluations)
	return clone(entry), nil
}

func (s *Store) Evaluations(studentID string) []Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Evaluations[studentID])
}

// Freelance evidence

// SubmitFreelance records pending evidence and switches the internship mode of the student to its platform.
// The approval and agreement forms must be in, and the last evidence, if any, rejected.
func (s *Store) SubmitFreelance(studentID string, data FreelanceData) (FreelanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.studentIndex(studentID)
	if i < 0 {
		return FreelanceRecord{}, ErrStudentNotFound
	}
	if len(s.state.Approvals[studentID]) == 0 || len(s.state.Agreements[studentID]) == 0 {
		return FreelanceRecord{}, ErrAppExARequired
	}
	if !CanSubmitFreelance(s.state.Freelance[studentID]) {
		return FreelanceRecord{}, ErrEvidencePending
	}
	entry := FreelanceRecord{ID: newID(), FreelanceData: data, CreatedAt: NowFunc(), Status: StatusPending}
	appendRecord(&s.state.Freelance, studentID, entry)
	s.state.Students[i].InternshipMode = data.Platform
	s.commit(KeyFreelance, KeyStudents)
	return clone(entry), nil
}

func (s *Store) FreelanceRecords(studentID string) []FreelanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Freelance[studentID])
}

func (s *Store) ReviewFreelance(studentID, recordID string, decision ReviewStatus, comment string) (FreelanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.state.Freelance[studentID]
	i := slices.IndexFunc(list, func(r FreelanceRecord) bool { return r.ID == recordID })
	if i < 0 {
		return FreelanceRecord{}, ErrFreelanceNotFound
	}
	rec := &list[i]
	next, changed, err := rec.Status.Transition(decision)
	if err != nil {
		return FreelanceRecord{}, err
	}
	if changed {
		rec.Status = next
		rec.OfficerComment = strings.TrimSpace(comment)
		rec.ResolvedAt = null.TimeFrom(NowFunc())
		s.commit(KeyFreelance)
	}
	return clone(*rec), nil
}

// Design statements

func (s *Store) SubmitDesignStatement(studentID string, data DesignStatementData) (DesignStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return DesignStatement{}, err
	}
	entry := DesignStatement{ID: newID(), DesignStatementData: data, CreatedAt: NowFunc()}
	appendRecord(&s.state.DesignStatements, studentID, entry)
	s.commit(KeyDesignStatements)
	return clone(entry), nil
}

func (s *Store) DesignStatements(studentID string) []DesignStatement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.DesignStatements[studentID])
}

// Assignments

// AssignmentKey is the blob key of an assignment content.
func AssignmentKey(studentID, assignmentID, fileName string) string {
	return path.Join("assignments", studentID, assignmentID, path.Base("/"+fileName))
}

// SubmitAssignment stores an uploaded file. With a BlobStore, the content is offloaded and only its key is kept.
func (s *Store) SubmitAssignment(ctx context.Context, studentID string, na NewAssignment) (Assignment, error) {
	content, err := base64.StdEncoding.DecodeString(na.ContentBase64)
	if err != nil {
		return Assignment{}, ErrInvalidContent
	}

	s.mu.RLock()
	err = s.requireStudent(studentID)
	s.mu.RUnlock()
	if err != nil {
		return Assignment{}, err
	}

	entry := Assignment{
		ID:         newID(),
		Title:      strings.TrimSpace(na.Title),
		FileName:   na.FileName,
		FileType:   na.FileType,
		FileSize:   na.FileSize,
		UploadedAt: NowFunc(),
	}
	if s.blobs != nil {
		entry.ContentKey = AssignmentKey(studentID, entry.ID, na.FileName)
		if err := s.blobs.Put(ctx, entry.ContentKey, content, na.FileType); err != nil {
			return Assignment{}, errors.Wrap(err, "storing assignment content")
		}
	} else {
		entry.ContentBase64 = na.ContentBase64
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return Assignment{}, err
	}
	appendRecord(&s.state.Assignments, studentID, entry)
	s.commit(KeyAssignments)
	return entry, nil
}

func (s *Store) Assignments(studentID string) []Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.state.Assignments[studentID])
}

// AssignmentContent returns an assignment and its decoded content, wherever it is kept.
func (s *Store) AssignmentContent(ctx context.Context, studentID, id string) (Assignment, []byte, error) {
	s.mu.RLock()
	list := s.state.Assignments[studentID]
	i := slices.IndexFunc(list, func(a Assignment) bool { return a.ID == id })
	var a Assignment
	if i >= 0 {
		a = list[i]
	}
	s.mu.RUnlock()
	if i < 0 {
		return Assignment{}, nil, ErrAssignmentNotFound
	}

	if a.ContentKey == "" {
		content, err := base64.StdEncoding.DecodeString(a.ContentBase64)
		if err != nil {
			return Assignment{}, nil, errors.Wrap(err, "decoding assignment content")
		}
		return a, content, nil
	}
	if s.blobs == nil {
		return Assignment{}, nil, errors.Errorf("no blob store configured for %s", a.ContentKey)
	}
	content, err := s.blobs.Get(ctx, a.ContentKey)
	if err != nil {
		return Assignment{}, nil, errors.Wrap(err, "loading assignment content")
	}
	return a, content, nil
}

func (s *Store) SetAssignmentFacultyMark(studentID, id string, mark float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.state.Assignments[studentID]
	i := slices.IndexFunc(list, func(a Assignment) bool { return a.ID == id })
	if i < 0 {
		return ErrAssignmentNotFound
	}
	list[i].FacultyMark = null.Float64From(mark)
	s.commit(KeyAssignments)
	return nil
}
