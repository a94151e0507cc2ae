package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/user"
	emailsvc "github.com/darasa/darasa/services/email"
	"github.com/darasa/darasa/storage/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	usrRepo = inmem.NewUserRepo()
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()

	return &commandLine{
		usrRepo: usrRepo,
		schSvc:  school.NewService(inmem.NewSchoolRepo(), mailSvc, logger),
		usrSvc:  user.NewService(usrRepo, mailSvc, logger),
	}
}

func createUser(t *testing.T, uname, email, pwd string) user.User {
	t.Helper()

	usr := user.User{Username: uname, Email: email, IsActive: true}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	migrateRunFunc = func(db *sql.DB, command string, args ...string) error {
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
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to requires a VERSION argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "batch", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
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
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createUser(t, "awe", "awe@test.cd", "mdr")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addSuper(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("S3cret!pass"), nil }

	if err := cli.run([]string{"admin", "addsuper", "-username", "root", "-email", "root@test.cd"}); err != nil {
		t.Fatalf("cli.run() failed, %v", err)
	}

	usr, err := usrRepo.GetUserByUsernameOrEmail(context.Background(), "root")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail() failed, %v", err)
	}
	if !usr.IsSuper() {
		t.Errorf("roles = %v, want super", usr.Roles)
	}
	if !usr.IsActive {
		t.Error("account should be active")
	}
	if err = usr.CheckPassword("S3cret!pass"); err != nil {
		t.Error("password was not set")
	}

	// promoting an existing account keeps its identity
	existing := createUser(t, "staff", "staff@test.cd", "mdr")
	if err = cli.run([]string{"admin", "addsuper", "-username", "staff", "-email", "staff@test.cd"}); err != nil {
		t.Fatalf("cli.run() failed, %v", err)
	}
	promoted, err := usrRepo.GetUserByID(context.Background(), existing.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed, %v", err)
	}
	if !promoted.IsSuper() {
		t.Errorf("roles = %v, want super", promoted.Roles)
	}
}

func Test_commandLine_genLicense(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no duration", args: []string{"genlicense"}, wantErr: errHelp},
		{name: "bad duration", args: []string{"genlicense", "-duration", "6Y"}, wantErr: school.ErrInvalidKey},
		{name: "mint one", args: []string{"genlicense", "-duration", "6M"}},
		{name: "mint several", args: []string{"genlicense", "-duration", "30D", "-count", "3"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil && err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	keys, err := cli.schSvc.QueryLicenses(context.Background())
	if err != nil {
		t.Fatalf("QueryLicenses() failed, %v", err)
	}
	if len(keys) != 4 {
		t.Errorf("len(keys) = %d, want 4", len(keys))
	}
}
