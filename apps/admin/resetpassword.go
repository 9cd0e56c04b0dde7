package main

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

var errUnknownRole = errors.New("role must be one of student, faculty, site or admin")

// resetPassword sets the password of the account with this role and email, bypassing the old one.
func (cli *commandLine) resetPassword(role portal.Role, email, pwd string) error {
	svc, err := cli.openService()
	if err != nil {
		return err
	}
	store := svc.Store()
	email = core.CleanString(email, true /* lower */)

	if tag := portal.PasswordPolicyTag(pwd, email); tag != "" {
		return errors.New(portal.PasswordPolicyText(tag))
	}

	switch role {
	case portal.RoleStudent:
		st, err := store.StudentByEmail(email)
		if err != nil {
			return err
		}
		return store.SetStudentPassword(st.ID, pwd)

	case portal.RoleFaculty:
		for _, f := range store.FacultySupervisors() {
			if strings.EqualFold(f.Email, email) {
				return store.SetFacultyPassword(f.ID, pwd)
			}
		}
		return portal.ErrFacultyNotFound

	case portal.RoleSite, portal.RoleSiteSupervisor:
		for _, sup := range store.SiteSupervisors() {
			if strings.EqualFold(sup.Email, email) {
				return store.SetSitePassword(sup.ID, pwd)
			}
		}
		return portal.ErrSiteNotFound

	case portal.RoleAdmin:
		if !strings.EqualFold(store.AdminProfile().Email, email) {
			return errors.Errorf("%s is not the office account", email)
		}
		return store.SetAdminPassword(pwd)
	}
	return errUnknownRole
}
