package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/internship/core/portal"
	"github.com/trezcool/internship/services/portalclient"
	"github.com/trezcool/internship/services/reminder"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out        io.Writer
	validate   *validator.Validate
	translator ut.Translator

	// opened on first use: migrate needs no store and createaccount no local state
	openService  func() (*portal.Service, error)
	openReminder func() (*reminder.Service, error)
	openDB       func() (*sqlx.DB, error)
	newClient    func(baseURL string) *portalclient.Client
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  resetpassword -role ROLE -email EMAIL - reset an account's password (student, faculty, site or admin)")
	fmt.Fprintln(cli.out, "  adduser -role ROLE -name NAME -email EMAIL [-department DEPT] [-company ID] - open an account (ADMIN, FACULTY, SITE or STUDENT)")
	fmt.Fprintln(cli.out, "  createaccount -url URL -as EMAIL -role ROLE -name NAME -email EMAIL - open an account through a running API")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command on the postgres store (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  export [-out FILE] - write the store snapshot as JSON")
	fmt.Fprintln(cli.out, "  remind [-dry] - send the weekly log reminders now")
}

// prompt reads a password without echoing it. An empty answer is errHelp.
func (cli *commandLine) prompt(label string, fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, label+":")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordRole := resetPasswordCmd.String("role", "student", "The account's role: student, faculty, site or admin.")
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserRole := addUserCmd.String("role", string(portal.AccountAdmin), "ADMIN, FACULTY, SITE or STUDENT.")
	addUserName := addUserCmd.String("name", "", "The account's display name.")
	addUserEmail := addUserCmd.String("email", "", "The account's email. The password will be prompted next.")
	addUserDept := addUserCmd.String("department", "", "The department of a faculty supervisor.")
	addUserCompany := addUserCmd.String("company", "", "The company id of a site supervisor.")

	createAccountCmd := flag.NewFlagSet("createaccount", flag.ContinueOnError)
	createAccountURL := createAccountCmd.String("url", "", "The API base URL (defaults to the client.baseURL config).")
	createAccountAs := createAccountCmd.String("as", "", "The office email to sign in with.")
	createAccountRole := createAccountCmd.String("role", string(portal.AccountAdmin), "ADMIN, FACULTY, SITE or STUDENT.")
	createAccountName := createAccountCmd.String("name", "", "The account's display name.")
	createAccountEmail := createAccountCmd.String("email", "", "The account's email.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportOut := exportCmd.String("out", "", "The file to write; stdout when empty.")

	remindCmd := flag.NewFlagSet("remind", flag.ContinueOnError)
	remindDry := remindCmd.Bool("dry", false, "List the students due a reminder without mailing them.")

	for _, fs := range []*flag.FlagSet{resetPasswordCmd, addUserCmd, createAccountCmd, exportCmd, remindCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.prompt("Enter password", resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(portal.Role(strings.ToLower(*resetPasswordRole)), *resetPasswordEmail, pwd)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.prompt("Enter password", addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(portal.CreateAccountRequest{
			Email:      *addUserEmail,
			Name:       *addUserName,
			Password:   pwd,
			Role:       portal.AccountRole(*addUserRole),
			Department: *addUserDept,
			CompanyID:  *addUserCompany,
		})

	case "createaccount":
		if err := createAccountCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *createAccountAs == "" || *createAccountEmail == "" || *createAccountName == "" {
			createAccountCmd.Usage()
			return errHelp
		}
		adminPwd, err := cli.prompt("Enter your password", createAccountCmd)
		if err != nil {
			return err
		}
		pwd, err := cli.prompt("Enter the new account's password", createAccountCmd)
		if err != nil {
			return err
		}
		return cli.createAccount(*createAccountURL, *createAccountAs, adminPwd, portal.CreateAccountRequest{
			Email:    *createAccountEmail,
			Name:     *createAccountName,
			Password: pwd,
			Role:     portal.AccountRole(strings.ToUpper(*createAccountRole)),
		})

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.export(*exportOut)

	case "remind":
		if err := remindCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.remind(*remindDry)

	default:
		cli.printUsage()
		return errHelp
	}
}
