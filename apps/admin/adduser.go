package main

import (
	"context"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

var errInvalidRole = core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(uname, email, name, role, pwd string) error {
	usr := user.User{
		Name:     core.CleanString(name),
		Username: core.CleanString(uname, true /* lower */),
		Email:    core.CleanString(email, true /* lower */),
		Role:     core.CleanString(role, true /* lower */),
		IsActive: true,
	}
	if usr.Role != user.RoleStudent && usr.Role != user.RoleInstructor {
		return errInvalidRole
	}
	if err := user.CheckPassword(cli.translator, pwd, usr); err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err := cli.usrSvc.Save(context.Background(), usr)
	return err
}
