package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kazadi/maktaba/core"
	"github.com/kazadi/maktaba/core/user"
)

// addAdmin promotes an existing account to admin, or creates a new one.
func (cli *commandLine) addAdmin(name, uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      name,
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	}
	usr.Roles = user.AllRoles
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
