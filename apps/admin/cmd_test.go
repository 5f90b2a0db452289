package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/kazadi/maktaba/core/user"
	inmemdb "github.com/kazadi/maktaba/storage/database/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("t3st#Sekret!"), nil }

	// start CLI
	return &commandLine{usrRepo: usrRepo}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func checkCLIErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	if err != nil {
		if tt.wantErr != nil {
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		} else if tt.wantErrStr != "" {
			if err.Error() != tt.wantErrStr {
				t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
			}
		} else {
			t.Errorf("cli.run() unexpected error = %v", err)
		}
	} else if tt.wantErr != nil || tt.wantErrStr != "" {
		t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
	}
}

func Test_commandLine_help(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no subcommand", args: []string{}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "addadmin: missing flags", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "resetpassword: missing username", args: []string{"resetpassword"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			checkCLIErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	migrateRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "notes", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			checkCLIErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	t.Run("creates a new admin", func(t *testing.T) {
		err := cli.run([]string{"admin", "addadmin", "-name", "Root", "-username", "rootboss", "-email", "Root@test.cd"})
		if err != nil {
			t.Fatalf("cli.run(): %v", err)
		}

		usr, err := usrRepo.GetUserByEmail(ctx, "root@test.cd")
		if err != nil {
			t.Fatalf("GetUserByEmail(): %v", err)
		}
		if !usr.IsAdmin() {
			t.Errorf("expected admin roles, got %v", usr.Roles)
		}
		if !usr.IsActive {
			t.Error("expected an active account")
		}
		if err := usr.CheckPassword("t3st#Sekret!"); err != nil {
			t.Errorf("CheckPassword(): %v", err)
		}
	})

	t.Run("promotes an existing user", func(t *testing.T) {
		usr := user.User{Name: "Plain", Username: "plainjoe", Email: "plain@test.cd", IsActive: true, Roles: []string{user.RoleMember}}
		usr, err := usrRepo.CreateUser(ctx, usr)
		if err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}

		if err = cli.run([]string{"admin", "addadmin", "-name", "Plain", "-email", "plain@test.cd"}); err != nil {
			t.Fatalf("cli.run(): %v", err)
		}

		promoted, err := usrRepo.GetUserByID(ctx, usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID(): %v", err)
		}
		if !promoted.IsAdmin() {
			t.Errorf("expected admin roles, got %v", promoted.Roles)
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := user.User{Name: "User", Username: "awesome", Email: "awe@test.cd", IsActive: true, Roles: []string{user.RoleMember}}
	if _, err := usrRepo.CreateUser(ctx, usr); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	t.Run("unknown user", func(t *testing.T) {
		tt := cliTest{wantErrStr: user.ErrNotFound.Error()}
		checkCLIErr(t, tt, cli.run([]string{"admin", "resetpassword", "-username", "who@test.cd"}))
	})

	t.Run("resets by username or email", func(t *testing.T) {
		for _, uname := range []string{"awesome", "awe@test.cd"} {
			if err := cli.run([]string{"admin", "resetpassword", "-username", uname}); err != nil {
				t.Fatalf("cli.run(%s): %v", uname, err)
			}
		}

		updated, err := usrRepo.GetUserByEmail(ctx, "awe@test.cd")
		if err != nil {
			t.Fatalf("GetUserByEmail(): %v", err)
		}
		if err := updated.CheckPassword("t3st#Sekret!"); err != nil {
			t.Errorf("CheckPassword(): %v", err)
		}
	})
}
