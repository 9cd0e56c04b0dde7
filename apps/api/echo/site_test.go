package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

func Test_siteApi_reportsAndScores(t *testing.T) {
	app := setup(t)
	sup, sp := app.createSite(t, "Boss", "boss@acme.com", "Acme")
	token := app.getToken(t, sp)
	st, _ := app.createStudent(t, "Ali", "ali@cuisahiwal.edu.pk")
	other, _ := app.createStudent(t, "Zara", "zara@cuisahiwal.edu.pk")
	require.NoError(t, app.store.AssignSupervisors(st.ID, "", sup.ID))

	base := "/api/site/students/" + st.ID
	tests := []httpTest{
		{
			name: "Unsupervised student", path: "/api/site/students/" + other.ID, token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: portal.ErrNotYours.Msg}),
		},
		{
			name: "progress report", method: http.MethodPost, path: base + "/reports", token: token,
			body: marchallObj(t, portal.NewReport{Type: portal.ReportProgress, Title: "Week 2", Content: "..."}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"type": "Site supervisors file mid and site final reports only"}),
		},
		{
			name: "mid report", method: http.MethodPost, path: base + "/reports", token: token,
			body: marchallObj(t, portal.NewReport{Type: portal.ReportMid, Title: "Mid", Content: "on track"}), wantCode: http.StatusCreated,
		},
		{
			name: "site final report", method: http.MethodPost, path: base + "/reports", token: token,
			body: marchallObj(t, portal.NewReport{Type: portal.ReportSiteFinal, Title: "Final", Content: "done"}), wantCode: http.StatusCreated,
		},
		{
			name: "marks", method: http.MethodPut, path: base + "/marks", token: token,
			body: marchallObj(t, portal.MarkRequest{Mark: 90}), wantData: marchallObj(t, success("Marks saved")),
		},
	}
	runHTTPTests(t, app, tests)

	// only the mid score is sent, the final one stays unset
	rec := app.do(httpTest{
		method: http.MethodPut, path: base + "/scores", token: token,
		body: marchallObj(t, BatchScoresRequest{Mid: null.Float64From(-10)}),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ok, err := jsonBytesEqual(rec.Body.Bytes(), []byte(`{"message": "Scores saved", "mid": 0, "final": null}`))
	require.NoError(t, err)
	assert.True(t, ok, rec.Body.String())

	rec = app.do(httpTest{
		method: http.MethodPut, path: base + "/scores", token: token,
		body: []byte(`{"final": 42.5}`),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ok, err = jsonBytesEqual(rec.Body.Bytes(), []byte(`{"message": "Scores saved", "mid": 0, "final": 42.5}`))
	require.NoError(t, err)
	assert.True(t, ok, rec.Body.String())

	got, err := app.store.Student(st.ID)
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.Marks.Site.Float64)
}

func Test_siteApi_students(t *testing.T) {
	app := setup(t)
	sup, sp := app.createSite(t, "Boss", "boss@acme.com", "Acme")
	token := app.getToken(t, sp)
	for _, name := range []string{"Ali", "Bilal"} {
		st, _ := app.createStudent(t, name, name+"@cuisahiwal.edu.pk")
		require.NoError(t, app.store.AssignSupervisors(st.ID, "", sup.ID))
	}
	app.createStudent(t, "Zara", "zara@cuisahiwal.edu.pk")

	rec := app.do(httpTest{method: http.MethodGet, path: "/api/site/students?search=bil", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listing struct {
		Students core.Page[portal.Student] `json:"students"`
		Counts   portal.StudentCounts      `json:"counts"`
	}
	unmarchallObj(t, rec, &listing)
	require.Len(t, listing.Students.Results, 1)
	assert.Equal(t, "Bilal", listing.Students.Results[0].Name)
	assert.Equal(t, 2, listing.Counts.Total)

	rec = app.do(httpTest{method: http.MethodGet, path: "/api/site/profile", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var prof struct {
		Profile portal.SiteSupervisor `json:"profile"`
	}
	unmarchallObj(t, rec, &prof)
	assert.Equal(t, sup.ID, prof.Profile.ID)
	assert.Equal(t, sup.CompanyID, prof.Profile.CompanyID)

	rec = app.do(httpTest{method: http.MethodPut, path: "/api/site/profile", token: token, body: []byte(`{"bio": "Hiring"}`)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarchallObj(t, rec, &prof)
	assert.Equal(t, "Boss", prof.Profile.Name, "unset fields are kept")
	assert.Equal(t, "Hiring", prof.Profile.Bio)
}
