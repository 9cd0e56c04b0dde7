package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	emailsvc "github.com/trezcool/internship/services/email"
	"github.com/trezcool/internship/services/portalclient"
	"github.com/trezcool/internship/services/reminder"
	"github.com/trezcool/internship/storage/database"
	"github.com/trezcool/internship/storage/snapshot/memsnap"
)

func TestMain(m *testing.M) {
	portal.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testCLI struct {
	*commandLine
	store     *portal.Store
	reminders *reminder.Service
	out       *bytes.Buffer
}

func setup(t *testing.T) testCLI {
	t.Helper()
	conf := core.NewTestConfig()
	logger := core.NewNopLogger()

	store, err := portal.NewStore(context.Background(), memsnap.Open(), portal.WithAdminAccount(portal.AdminAccount{
		Email:    conf.Portal.AdminEmail,
		Password: conf.Portal.AdminPassword,
		Name:     conf.Portal.AdminName,
	}))
	require.NoError(t, err)
	mails := emailsvc.NewConsoleServiceMock(conf)
	svc := portal.NewService(store, mails, conf, logger)
	reminders := reminder.NewService(store, mails, logger, nil)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	portal.InitValidators(validate, translator)

	out := new(bytes.Buffer)
	cli := &commandLine{
		out:          out,
		validate:     validate,
		translator:   translator,
		openService:  func() (*portal.Service, error) { return svc, nil },
		openReminder: func() (*reminder.Service, error) { return reminders, nil },
		openDB: func() (*sqlx.DB, error) {
			db, _, err := sqlmock.New()
			if err != nil {
				return nil, err
			}
			return sqlx.NewDb(db, "postgres"), nil
		},
		newClient: func(baseURL string) *portalclient.Client { return portalclient.New(baseURL) },
	}
	return testCLI{commandLine: cli, store: store, reminders: reminders, out: out}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

// passwords answers the password prompts in order.
type passwords []string

func mockPrompts(t *testing.T, tt cliTest) {
	answers, _ := tt.extra.(passwords)
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })
	readPasswordFunc = func(fd int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, nil
		}
		pwd := answers[0]
		answers = answers[1:]
		return []byte(pwd), nil
	}
}

func runCLITest(t *testing.T, cli testCLI, tt cliTest) error {
	t.Helper()
	mockPrompts(t, tt)
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	return err
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	defer func(orig func(context.Context, string, *sql.DB, string, ...string) error) {
		database.GooseRunFunc = orig
	}(database.GooseRunFunc)
	database.GooseRunFunc = func(_ context.Context, command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "migrating database: \"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "migrating database: up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "migrating database: version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "migrating database: create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "migrating database: down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "migrating database: version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "snapshot_history", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLITest(t, cli, tt)
		})
	}
}

func Test_openDB(t *testing.T) {
	conf := core.NewTestConfig()
	_, err := openDB(conf)
	assert.EqualError(t, err, `migrate needs the postgres store driver (store.driver is "memory")`)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	st, err := cli.store.CreateStudent(portal.NewStudent{Name: "Ali", Email: "ali@cuisahiwal.edu.pk", Password: "Secret#123"})
	require.NoError(t, err)
	f, err := cli.store.AddFacultySupervisor("Dr. Faculty", "faculty@cuisahiwal.edu.pk", "", "Faculty#123")
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", st.Email}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"resetpassword", "-username", "ali"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"resetpassword", "-email", st.Email}, extra: passwords{"password"},
			wantErrStr: portal.PasswordPolicyText(portal.PasswordPolicyTag("password")),
		},
		{
			name: "student not found", args: []string{"resetpassword", "-email", "nobody@cuisahiwal.edu.pk"},
			extra: passwords{"Fresh#Pass42"}, wantErr: portal.ErrStudentNotFound,
		},
		{
			name: "unknown role", args: []string{"resetpassword", "-role", "dean", "-email", st.Email},
			extra: passwords{"Fresh#Pass42"}, wantErr: errUnknownRole,
		},
		{name: "student", args: []string{"resetpassword", "-email", "ALI@cuisahiwal.edu.pk"}, extra: passwords{"Fresh#Pass42"}},
		{name: "faculty", args: []string{"resetpassword", "-role", "faculty", "-email", f.Email}, extra: passwords{"Fresh#Pass42"}},
		{name: "admin", args: []string{"resetpassword", "-role", "admin", "-email", "office@cuisahiwal.edu.pk"}, extra: passwords{"Fresh#Pass42"}},
		{
			name: "admin with another email", args: []string{"resetpassword", "-role", "admin", "-email", st.Email},
			extra: passwords{"Fresh#Pass42"}, wantErrStr: st.Email + " is not the office account",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLITest(t, cli, tt)
		})
	}

	_, err = cli.store.Login(st.Email, "Fresh#Pass42")
	assert.NoError(t, err, "student password reset")
	_, err = cli.store.LoginFaculty(f.Email, "Fresh#Pass42")
	assert.NoError(t, err, "faculty password reset")
	_, err = cli.store.LoginAdmin("office@cuisahiwal.edu.pk", "Fresh#Pass42")
	assert.NoError(t, err, "admin password reset")
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Sana", "-email", "sana@cuisahiwal.edu.pk"}, wantErr: errHelp},
		{
			name: "invalid email", args: []string{"adduser", "-name", "Sana", "-email", "sana"},
			extra: passwords{"Strong#Pass9"}, wantErrStr: "email: enter a valid email address",
		},
		{name: "officer", args: []string{"adduser", "-name", "Sana", "-email", "sana@cuisahiwal.edu.pk"}, extra: passwords{"Strong#Pass9"}},
		{
			name: "faculty", args: []string{"adduser", "-role", "faculty", "-name", "Dr. Imran", "-email", "imran@cuisahiwal.edu.pk", "-department", "CS"},
			extra: passwords{"Strong#Pass9"},
		},
		{
			name: "email taken", args: []string{"adduser", "-role", "faculty", "-name", "Imran", "-email", "IMRAN@cuisahiwal.edu.pk"},
			extra: passwords{"Strong#Pass9"}, wantErr: portal.ErrEmailTaken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLITest(t, cli, tt)
		})
	}

	mockPrompts(t, cliTest{extra: passwords{"Strong#Pass9"}})
	err := cli.run([]string{"admin", "adduser", "-role", "dean", "-name", "Sana", "-email", "sana@cuisahiwal.edu.pk"})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldMap(), "role")

	officers := cli.store.InternshipOfficers()
	require.Len(t, officers, 1)
	assert.Equal(t, "sana@cuisahiwal.edu.pk", officers[0].Email)

	f, err := cli.store.LoginFaculty("imran@cuisahiwal.edu.pk", "Strong#Pass9")
	require.NoError(t, err)
	assert.Equal(t, "CS", f.Department)
	assert.Contains(t, cli.out.String(), "Account created successfully: Dr. Imran <imran@cuisahiwal.edu.pk> (FACULTY")
}

func Test_commandLine_export(t *testing.T) {
	cli := setup(t)
	_, err := cli.store.CreateStudent(portal.NewStudent{Name: "Ali", Email: "ali@cuisahiwal.edu.pk"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	runCLITest(t, cli, cliTest{args: []string{"export", "-out", path}})
	assert.Equal(t, "snapshot written to "+path+"\n", cli.out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap portal.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap.Students, 1)
	assert.Equal(t, "Ali", snap.Students[0].Name)
	assert.Equal(t, "office@cuisahiwal.edu.pk", snap.AdminProfile.Email)

	cli.out.Reset()
	runCLITest(t, cli, cliTest{args: []string{"export"}})
	var fromStdout portal.Snapshot
	require.NoError(t, json.Unmarshal(cli.out.Bytes(), &fromStdout))
	assert.Len(t, fromStdout.Students, 1)
}

func Test_commandLine_remind(t *testing.T) {
	cli := setup(t)
	now := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	cli.reminders.NowFunc = func() time.Time { return now }

	runCLITest(t, cli, cliTest{args: []string{"remind"}})
	assert.Equal(t, "0 reminders sent\n", cli.out.String())

	st, err := cli.store.CreateStudent(portal.NewStudent{Name: "Ali Raza", Email: "ali@cuisahiwal.edu.pk"})
	require.NoError(t, err)
	require.NoError(t, cli.store.ApproveStudent(st.ID))
	_, err = cli.store.SubmitApproval(st.ID, portal.ApprovalData{Internship: portal.ApprovalInternship{StartDate: "2024-03-01"}})
	require.NoError(t, err)

	cli.out.Reset()
	runCLITest(t, cli, cliTest{args: []string{"remind", "-dry"}})
	assert.Equal(t, "Ali Raza <ali@cuisahiwal.edu.pk>: week 3\n", cli.out.String())

	cli.out.Reset()
	runCLITest(t, cli, cliTest{args: []string{"remind"}})
	assert.Equal(t, "1 reminders sent\n", cli.out.String())
}

func Test_commandLine_createAccount(t *testing.T) {
	cli := setup(t)

	var created portal.CreateAccountRequest
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			var req portal.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			switch {
			case req.Password != "Office#Pass1":
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error": "Invalid credentials"}`))
			case req.Email == "faculty@cuisahiwal.edu.pk":
				_, _ = w.Write([]byte(`{"success": true, "token": "faculty-token", "role": "faculty"}`))
			default:
				_, _ = w.Write([]byte(`{"success": true, "token": "office-token", "role": "admin"}`))
			}
		case "/api/admin/create-account":
			if r.Header.Get("Authorization") != "Bearer office-token" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": "missing or malformed jwt"}`))
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&created)
			w.WriteHeader(http.StatusCreated)
			_, _ = fmt.Fprintf(w, `{"message": "Account created successfully", "user": {"id": "u1", "name": %q, "email": %q, "role": %q}}`,
				created.Name, created.Email, created.Role)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	args := func(as string) []string {
		return []string{"createaccount", "-url", api.URL, "-as", as, "-role", "faculty", "-name", "Dr. Imran", "-email", "imran@cuisahiwal.edu.pk"}
	}
	tests := []cliTest{
		{name: "no args", args: []string{"createaccount"}, wantErr: errHelp},
		{name: "no passwords", args: args("office@cuisahiwal.edu.pk"), wantErr: errHelp},
		{name: "only the office password", args: args("office@cuisahiwal.edu.pk"), extra: passwords{"Office#Pass1"}, wantErr: errHelp},
		{
			name: "wrong office password", args: args("office@cuisahiwal.edu.pk"), extra: passwords{"nope", "Strong#Pass9"},
			wantErrStr: "signing in to " + api.URL + ": Invalid credentials",
		},
		{
			name: "not an office account", args: args("faculty@cuisahiwal.edu.pk"), extra: passwords{"Office#Pass1", "Strong#Pass9"},
			wantErrStr: "faculty@cuisahiwal.edu.pk is not an office account",
		},
		{name: "created", args: args("office@cuisahiwal.edu.pk"), extra: passwords{"Office#Pass1", "Strong#Pass9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLITest(t, cli, tt)
		})
	}

	assert.Equal(t, portal.AccountFaculty, created.Role)
	assert.Equal(t, "Strong#Pass9", created.Password)
	assert.Contains(t, cli.out.String(), "Account created: Dr. Imran <imran@cuisahiwal.edu.pk> (FACULTY, id u1)")
}
