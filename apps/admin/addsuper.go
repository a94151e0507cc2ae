package main

import (
	"context"
	"fmt"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/user"
)

// addSuper creates or promotes a platform super admin account. Supers belong
// to no institute.
func (cli *commandLine) addSuper(uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username: uname,
			Email:    email,
		}
	}
	usr.Roles = user.SuperRoles
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	active := true
	if usr.ID == "" {
		usr.IsActive = true
		usr, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		usr, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	}
	if err != nil {
		return err
	}
	fmt.Printf("super admin ready: %s\n", usr.Username)
	return nil
}
