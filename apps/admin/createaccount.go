package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/internship/core/portal"
)

// createAccount signs in to a running API as an office account and opens a new account there.
func (cli *commandLine) createAccount(baseURL, adminEmail, adminPwd string, req portal.CreateAccountRequest) error {
	ctx := context.Background()
	client := cli.newClient(baseURL)

	login := client.Login(ctx, adminEmail, adminPwd)
	if !login.Success {
		return errors.Errorf("signing in to %s: %s", client.BaseURL(), login.Message)
	}
	if login.Role != "" && login.Role != string(portal.RoleAdmin) {
		return errors.Errorf("%s is not an office account", adminEmail)
	}

	resp, err := client.CreateAccount(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}
	var user portal.AccountSummary
	if err = resp.Decode("user", &user); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Account created: %s <%s> (%s, id %s)\n", user.Name, user.Email, user.Role, user.ID)
	return nil
}
