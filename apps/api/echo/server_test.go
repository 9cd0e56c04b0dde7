package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	emailsvc "github.com/trezcool/internship/services/email"
	"github.com/trezcool/internship/services/metrics"
	"github.com/trezcool/internship/storage/snapshot/memsnap"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	portal.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testApp struct {
	*Server
	conf  *core.Config
	db    *memsnap.DB
	store *portal.Store
	mails *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T, configure ...func(conf *core.Config)) testApp {
	t.Helper()
	conf := core.NewTestConfig()
	for _, fn := range configure {
		fn(conf)
	}

	db := memsnap.Open()
	store, err := portal.NewStore(context.Background(), db, portal.WithAdminAccount(portal.AdminAccount{
		Email:    conf.Portal.AdminEmail,
		Password: conf.Portal.AdminPassword,
		Name:     conf.Portal.AdminName,
	}))
	require.NoError(t, err)

	mails := emailsvc.NewConsoleServiceMock(conf)
	logger := core.NewNopLogger()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	portal.InitValidators(validate, translator)

	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Service:    portal.NewService(store, mails, conf, logger),
		Validate:   validate,
		Translator: translator,
		Metrics:    metrics.New(),
	})
	t.Cleanup(func() { _ = srv.Close() })

	return testApp{Server: srv, conf: conf, db: db, store: store, mails: mails}
}

func (app testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

// fixtures

func (app testApp) adminPrincipal() portal.Principal {
	prof := app.store.AdminProfile()
	return portal.Principal{Role: portal.RoleAdmin, Email: prof.Email, Name: prof.Name}
}

func (app testApp) createStudent(t *testing.T, name, email string) (portal.Student, portal.Principal) {
	t.Helper()
	st, err := app.store.CreateStudent(portal.NewStudent{Name: name, Email: email, Password: "Secret#123"})
	require.NoError(t, err)
	return st, portal.Principal{Role: portal.RoleStudent, StudentID: st.ID, Email: st.Email, Name: st.Name}
}

func (app testApp) createFaculty(t *testing.T, name, email string) (portal.FacultySupervisor, portal.Principal) {
	t.Helper()
	f, err := app.store.AddFacultySupervisor(name, email, "Computer Science", "Faculty#123")
	require.NoError(t, err)
	return f, portal.Principal{Role: portal.RoleFaculty, FacultyID: f.ID, Email: f.Email, Name: f.Name}
}

func (app testApp) createSite(t *testing.T, name, email, companyName string) (portal.SiteSupervisor, portal.Principal) {
	t.Helper()
	companyID, err := app.store.AddCompany(companyName, "Sahiwal", nil)
	require.NoError(t, err)
	id, err := app.store.AddSiteSupervisor(name, email, companyID, "Site#1234")
	require.NoError(t, err)
	sup, err := app.store.SiteSupervisor(id)
	require.NoError(t, err)
	return sup, portal.Principal{Role: portal.RoleSiteSupervisor, SiteID: sup.ID, Email: sup.Email, Name: sup.Name}
}

func (app testApp) getToken(t *testing.T, p portal.Principal) string {
	t.Helper()
	pair, err := app.issuer.issue(p)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return pair.access
}

// helpers

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchallObj() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func TestServer_home(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to "+app.conf.AppName+" API!", rec.Body.String())
}

func TestServer_health(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/healthz")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	unmarchallObj(t, rec, &body)
	assert.Equal(t, "ok", body["status"])

	app.db.FailSaves(errors.New("quota exceeded"))
	_, err := app.store.AddCompany("Acme", "", nil)
	require.NoError(t, err)

	req, rec = newRequest(http.MethodGet, "/healthz")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	unmarchallObj(t, rec, &body)
	assert.Equal(t, "degraded", body["status"])
	assert.Contains(t, body["error"], "quota exceeded")

	// recovered by the next successful write
	app.db.FailSaves(nil)
	require.NoError(t, app.store.Flush(context.Background()))
	req, rec = newRequest(http.MethodGet, "/healthz")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_metrics(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/healthz")
	app.ServeHTTP(rec, req)

	req, rec = newRequest(http.MethodGet, "/metrics")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_SignalShutdown(t *testing.T) {
	app := setup(t)
	app.SignalShutdown()
	app.SignalShutdown() // never blocks
	select {
	case <-app.ShutdownSignal():
	default:
		t.Fatal("no shutdown signal")
	}
}
