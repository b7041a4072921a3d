package main

import (
	"context"

	"github.com/trezcool/elimu/core/user"
)

func (cli *commandLine) resetPassword(login, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, login)
	if err != nil {
		return err
	}
	if err := user.CheckPassword(cli.translator, pwd, usr); err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, login, pwd)
	return err
}
