package portal

import (
	"math"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// ModeFilter narrows a student list by internship mode; "All" or "" keeps everyone.
type ModeFilter string

const ModeAll ModeFilter = "All"

// StudentFilter is the query of the supervisor dashboards.
type StudentFilter struct {
	FacultyID string     `query:"-"`
	SiteID    string     `query:"-"`
	Mode      ModeFilter `query:"mode"`
	Search    string     `query:"search"`
	Pending   bool       `query:"pendingOnly"`
}

type StudentCounts struct {
	Total         int `json:"total"`
	Pending       int `json:"pending"`
	OnSiteVirtual int `json:"onsiteVirtual"`
	Freelance     int `json:"freelance"`
}

// FilterStudents keeps the students supervised by the filter's faculty or site supervisor,
// of the requested mode, whose name, email or registration number contains the search text.
func FilterStudents(students []Student, f StudentFilter) []Student {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	res := make([]Student, 0, len(students))
	for _, st := range students {
		if f.FacultyID != "" && st.FacultyID != f.FacultyID {
			continue
		}
		if f.SiteID != "" && st.SiteID != f.SiteID {
			continue
		}
		if f.Mode != "" && f.Mode != ModeAll && string(st.InternshipMode) != string(f.Mode) {
			continue
		}
		if f.Pending && st.Approved {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(st.Name), q) &&
			!strings.Contains(strings.ToLower(st.Email), q) &&
			!strings.Contains(strings.ToLower(st.RegistrationNo), q) {
			continue
		}
		res = append(res, st)
	}
	return res
}

func CountStudents(students []Student) StudentCounts {
	counts := StudentCounts{Total: len(students)}
	for _, st := range students {
		if !st.Approved {
			counts.Pending++
		}
		switch st.InternshipMode {
		case ModeOnSite, ModeVirtual:
			counts.OnSiteVirtual++
		case ModeFiverr, ModeUpwork:
			counts.Freelance++
		}
	}
	return counts
}

// ClampMark keeps marks and scores at 0 or above.
func ClampMark(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, v)
}

// LatestReportOfType returns the last report of type t, false if there is none.
func LatestReportOfType(reports []Report, t ReportType) (Report, bool) {
	for i := len(reports) - 1; i >= 0; i-- {
		if reports[i].Type == t {
			return reports[i], true
		}
	}
	return Report{}, false
}

// IsPendingApplication tells whether the latest approval of a student still awaits review.
func IsPendingApplication(approvals []ApprovalForm) bool {
	if len(approvals) == 0 {
		return false
	}
	status := approvals[len(approvals)-1].Status
	return status == StatusPending || status == ""
}

func internshipStart(approvals []ApprovalForm) (time.Time, bool) {
	if len(approvals) == 0 {
		return time.Time{}, false
	}
	first := approvals[0]
	if first.Internship.StartDate != "" {
		if start, err := time.Parse("2006-01-02", first.Internship.StartDate); err == nil {
			return start, true
		}
		if start, err := time.Parse(time.RFC3339, first.Internship.StartDate); err == nil {
			return start, true
		}
		return time.Time{}, false
	}
	return first.CreatedAt, !first.CreatedAt.IsZero()
}

// ExpectedWeeks is the number of weekly logs due at now, counted from the start date of the first approval.
func ExpectedWeeks(approvals []ApprovalForm, now time.Time) int {
	start, ok := internshipStart(approvals)
	if !ok {
		return 0
	}
	days := max(0, int(math.Floor(now.Sub(start).Hours()/24))+1)
	return int(math.Ceil(float64(days) / 7))
}

// HasLogThisWeek tells whether a log was filed in the 7 days before now.
func HasLogThisWeek(logs []WeeklyLog, now time.Time) bool {
	for _, l := range logs {
		if !l.Date.IsZero() && now.Sub(l.Date) <= 7*24*time.Hour {
			return true
		}
	}
	return false
}

// Compliance sums up the weekly log duty of a student.
type Compliance struct {
	ExpectedWeeks  int  `json:"expectedWeeks"`
	LogsCount      int  `json:"logsCount"`
	HasLogThisWeek bool `json:"hasLogThisWeek"`
}

func (s *Store) Compliance(studentID string, now time.Time) Compliance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := s.state.Logs[studentID]
	return Compliance{
		ExpectedWeeks:  ExpectedWeeks(s.state.Approvals[studentID], now),
		LogsCount:      len(logs),
		HasLogThisWeek: HasLogThisWeek(logs, now),
	}
}

// SaveBatchScores scores the latest mid and site-final reports of a student. Invalid scores are skipped.
func (s *Store) SaveBatchScores(studentID string, mid, final null.Float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStudent(studentID); err != nil {
		return err
	}
	list := s.state.Reports[studentID]
	var changed bool
	for _, pair := range []struct {
		typ   ReportType
		score null.Float64
	}{{ReportMid, mid}, {ReportSiteFinal, final}} {
		if !pair.score.Valid {
			continue
		}
		for i := len(list) - 1; i >= 0; i-- {
			if list[i].Type == pair.typ {
				list[i].Score = null.Float64From(ClampMark(pair.score.Float64))
				changed = true
				break
			}
		}
	}
	if changed {
		s.commit(KeyReports)
	}
	return nil
}
