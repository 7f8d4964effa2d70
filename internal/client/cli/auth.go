package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/meddocs/internal/client/models"
	"github.com/dmitrijs2005/meddocs/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped
// in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errEmptyField = errors.New("all fields are required")

// Signup prompts for a username, email, and password and attempts to
// create a new account. On success the session is established and
// persisted, and a confirmation is printed.
//
// The password byte slice is wiped before returning.
func (a *App) Signup(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if username == "" || email == "" || len(password) == 0 {
		return errEmptyField
	}

	req := models.SignupRequest{Username: username, Email: email, Password: string(password)}
	if err := a.session.Signup(ctx, req); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account created, logged in as %s\n", username)
	return nil
}

// Login prompts for credentials and tries to authenticate. On success
// the session is established and persisted.
//
// The password byte slice is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if username == "" || len(password) == 0 {
		return errEmptyField
	}

	creds := models.Credentials{Username: username, Password: string(password)}
	if err := a.session.Login(ctx, creds); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", username)
	return nil
}

// Logout clears the in-memory session and the persisted snapshot. It
// never fails; the selected patient scope is dropped as well.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout()
	a.patientID = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
