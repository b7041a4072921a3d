package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/storage/database"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	"github.com/trezcool/elimu/tests"
)

const validPwd = "Tr0ub4dor&3x"

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) *commandLine {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(nopLogger{})

	store := database.NewMemoryStore(inmemdb.New())
	return &commandLine{
		store:      store,
		usrSvc:     user.NewService(store.Users),
		translator: translator,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
	isValid bool // wants a core.ValidationError
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.isValid:
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)
	mockPassword(validPwd)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{name: "migrate", args: []string{"migrate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email required", args: []string{"adduser", "-username", "prof"}, pwd: validPwd, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "prof", "-email", "prof@test.io"}, wantErr: errHelp},
		{
			name: "invalid role", args: []string{"adduser", "-username", "prof", "-email", "prof@test.io", "-role", "admin"},
			pwd: validPwd, isValid: true,
		},
		{
			name: "weak password", args: []string{"adduser", "-username", "prof", "-email", "prof@test.io"},
			pwd: "password", isValid: true,
		},
		{
			name: "create", args: []string{"adduser", "-username", "Prof", "-email", "prof@test.io", "-name", "Jane Prof", "-role", "instructor"},
			pwd: validPwd,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(context.Background(), "prof")
	require.NoError(t, err)
	assert.Equal(t, "Jane Prof", usr.Name)
	assert.Equal(t, user.RoleInstructor, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(validPwd))

	t.Run("update existing", func(t *testing.T) {
		newPwd := "N3w-Secret!x"
		mockPassword(newPwd)
		err := cli.run([]string{"admin", "adduser", "-username", "prof", "-email", "prof@test.io", "-role", "student"})
		require.NoError(t, err)

		updated, err := cli.usrSvc.GetByUsernameOrEmail(context.Background(), "prof@test.io")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, updated.ID)
		assert.Equal(t, user.RoleStudent, updated.Role)
		assert.NoError(t, updated.CheckPassword(newPwd))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.store.Users, "User", "awe", "awe@test.cd", "Old-Secret!9", "", true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: validPwd, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-username", usr.Username}, pwd: "12345678", isValid: true},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: validPwd},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "An0ther-Secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			checkErr(t, tt, err)

			if err == nil {
				refreshed, err := cli.store.Users.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				require.NoError(t, err)
				assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "failed to update new password")
				assert.NoError(t, refreshed.CheckPassword(tt.pwd))
			}
		})
	}
}
