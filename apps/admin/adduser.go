package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

// addUser opens an account of any role, on the same rules as the office's create-account endpoint.
func (cli *commandLine) addUser(req portal.CreateAccountRequest) error {
	if err := req.Validate(cli.validate); err != nil {
		return cli.validationError(err)
	}
	svc, err := cli.openService()
	if err != nil {
		return err
	}
	created, err := svc.CreateAccount(req, portal.Principal{Role: portal.RoleAdmin})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s: %s <%s> (%s, id %s)\n", created.Message, created.User.Name, created.User.Email, created.User.Role, created.User.ID)
	return nil
}

// validationError reads validator errors as one "field: message; ..." error.
func (cli *commandLine) validationError(err error) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	fldMap := core.TranslateErrors(vErrs, cli.translator)
	names := make([]string, 0, len(fldMap))
	for name := range fldMap {
		names = append(names, name)
	}
	sort.Strings(names)

	flds := make([]core.FieldError, 0, len(names))
	parts := make([]string, 0, len(names))
	for _, name := range names {
		flds = append(flds, core.FieldError{Field: name, Error: fldMap[name]})
		parts = append(parts, name+": "+fldMap[name])
	}
	return core.NewValidationError(errors.New(strings.Join(parts, "; ")), flds...)
}
