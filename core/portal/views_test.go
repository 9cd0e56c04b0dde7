package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func TestFilterStudents(t *testing.T) {
	students := []Student{
		{ID: "1", Name: "Ali Khan", Email: "ali@cuisahiwal.edu.pk", RegistrationNo: "FA21-BCS-001", FacultyID: "f1", InternshipMode: ModeOnSite, Approved: true},
		{ID: "2", Name: "Sara Malik", Email: "sara@cuisahiwal.edu.pk", RegistrationNo: "FA21-BCS-002", FacultyID: "f1", InternshipMode: ModeFiverr},
		{ID: "3", Name: "Omar", Email: "omar@cuisahiwal.edu.pk", RegistrationNo: "FA21-BSE-003", FacultyID: "f2", SiteID: "s1", InternshipMode: ModeVirtual},
		{ID: "4", Name: "Hina", Email: "hina@cuisahiwal.edu.pk", RegistrationNo: "FA21-BSE-004", SiteID: "s1"},
	}
	ids := func(sts []Student) []string {
		res := make([]string, 0, len(sts))
		for _, st := range sts {
			res = append(res, st.ID)
		}
		return res
	}

	tests := []struct {
		name   string
		filter StudentFilter
		want   []string
	}{
		{name: "everyone", want: []string{"1", "2", "3", "4"}},
		{name: "faculty", filter: StudentFilter{FacultyID: "f1"}, want: []string{"1", "2"}},
		{name: "site", filter: StudentFilter{SiteID: "s1"}, want: []string{"3", "4"}},
		{name: "all modes", filter: StudentFilter{FacultyID: "f1", Mode: ModeAll}, want: []string{"1", "2"}},
		{name: "mode", filter: StudentFilter{Mode: ModeFilter(ModeFiverr)}, want: []string{"2"}},
		{name: "pending only", filter: StudentFilter{FacultyID: "f1", Pending: true}, want: []string{"2"}},
		{name: "search name", filter: StudentFilter{Search: " khan"}, want: []string{"1"}},
		{name: "search regno", filter: StudentFilter{Search: "bse"}, want: []string{"3", "4"}},
		{name: "no match", filter: StudentFilter{Search: "zzz"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterStudents(students, tt.filter)))
		})
	}

	assert.Equal(t, StudentCounts{Total: 4, Pending: 3, OnSiteVirtual: 2, Freelance: 1}, CountStudents(students))
}

func TestExpectedWeeks(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		approvals []ApprovalForm
		want      int
	}{
		{name: "no approvals", want: 0},
		{name: "starts today", approvals: []ApprovalForm{{ApprovalData: ApprovalData{Internship: ApprovalInternship{StartDate: "2024-03-01"}}}}, want: 1},
		{name: "day 8", approvals: []ApprovalForm{{ApprovalData: ApprovalData{Internship: ApprovalInternship{StartDate: "2024-02-23"}}}}, want: 2},
		{name: "not started", approvals: []ApprovalForm{{ApprovalData: ApprovalData{Internship: ApprovalInternship{StartDate: "2024-04-01"}}}}, want: 0},
		{name: "created date fallback", approvals: []ApprovalForm{{CreatedAt: now.AddDate(0, 0, -14)}}, want: 3},
		{name: "bad date", approvals: []ApprovalForm{{ApprovalData: ApprovalData{Internship: ApprovalInternship{StartDate: "soon"}}}}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedWeeks(tt.approvals, now))
		})
	}
}

func TestHasLogThisWeek(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.False(t, HasLogThisWeek(nil, now))
	assert.False(t, HasLogThisWeek([]WeeklyLog{{Date: now.AddDate(0, 0, -8)}}, now))
	assert.True(t, HasLogThisWeek([]WeeklyLog{{Date: now.AddDate(0, 0, -8)}, {Date: now.AddDate(0, 0, -2)}}, now))
}

func TestReportHelpers(t *testing.T) {
	reports := []Report{
		{ID: "1", Type: ReportMid},
		{ID: "2", Type: ReportSiteFinal},
		{ID: "3", Type: ReportMid},
	}
	got, ok := LatestReportOfType(reports, ReportMid)
	require.True(t, ok)
	assert.Equal(t, "3", got.ID)
	_, ok = LatestReportOfType(reports, ReportFinal)
	assert.False(t, ok)

	assert.Equal(t, 0.0, ClampMark(-3))
	assert.Equal(t, 7.5, ClampMark(7.5))

	assert.False(t, IsPendingApplication(nil))
	assert.True(t, IsPendingApplication([]ApprovalForm{{Status: StatusApproved}, {Status: StatusPending}}))
	assert.False(t, IsPendingApplication([]ApprovalForm{{Status: StatusRejected}}))
}

func TestStore_ComplianceAndBatchScores(t *testing.T) {
	store, _ := newTestStore(t)
	st := mustStudent(t, store, "Ali", "ali@cuisahiwal.edu.pk")

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -10).Format("2006-01-02")
	_, err := store.SubmitApproval(st.ID, ApprovalData{Internship: ApprovalInternship{StartDate: start}})
	require.NoError(t, err)
	_, err = store.SubmitWeeklyLog(st.ID, NewWeeklyLog{Week: 1, Note: "kickoff"})
	require.NoError(t, err)
	assert.Equal(t, Compliance{ExpectedWeeks: 2, LogsCount: 1, HasLogThisWeek: true}, store.Compliance(st.ID, now))

	mid, err := store.SubmitReport(st.ID, NewReport{Type: ReportMid, Title: "Mid", Content: "..."})
	require.NoError(t, err)
	require.NoError(t, store.SaveBatchScores(st.ID, null.Float64From(-4), null.Float64From(9)))

	reports := store.Reports(st.ID)
	require.Len(t, reports, 1)
	assert.Equal(t, mid.ID, reports[0].ID)
	assert.Equal(t, null.Float64From(0), reports[0].Score)
	assert.Equal(t, ErrStudentNotFound, store.SaveBatchScores("nope", null.Float64{}, null.Float64{}))
}
