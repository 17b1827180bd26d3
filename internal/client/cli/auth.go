package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getSecret     = GetSecret
)

func (a *App) credentials() (email string, password []byte, err error) {
	email, err = getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err = getSecret(a.reader, "Enter password", a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// SignUp creates an account and registers its public profile together with
// the chosen username. A username that is already taken is refused before
// the account is created.
func (a *App) SignUp(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	if models.NormalizeUsername(username) == "" {
		return a.report(ctx, "sign up", models.ErrInvalidUsername)
	}
	if _, err := a.store.ResolveUsername(ctx, models.NormalizeUsername(username)); err == nil {
		return a.report(ctx, "sign up", common.Wrap(common.ErrAlreadyExists, errors.New("username is taken")))
	}

	changes, stop := a.engine.Subscribe()
	defer stop()

	owner, err := a.auth.SignUp(ctx, email, string(password))
	if err != nil {
		return a.report(ctx, "sign up", err)
	}

	err = a.store.RegisterProfile(ctx, models.Profile{
		OwnerID:   owner,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return a.report(ctx, "register profile", err)
	}

	if err := a.awaitSync(ctx, changes, owner); err != nil {
		a.log.Warn(ctx, "engine did not pick up sign-up", "error", err)
	}
	a.printf("Welcome, %s!\n", models.NormalizeUsername(username))
	return nil
}

// SignIn prompts for credentials and starts a session. The engine reloads
// the owner's drafts when the identity client announces the sign-in.
func (a *App) SignIn(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	changes, stop := a.engine.Subscribe()
	defer stop()

	owner, err := a.auth.SignIn(ctx, email, string(password))
	if err != nil {
		return a.report(ctx, "sign in", err)
	}

	if err := a.awaitSync(ctx, changes, owner); err != nil {
		a.log.Warn(ctx, "engine did not pick up sign-in", "error", err)
	}
	a.gate.Lock()
	a.lastPrompts = nil
	a.printf("Signed in.\n")
	return nil
}

// SignOut ends the session and relocks hidden drafts. Local state is cleared
// even when the server call fails.
func (a *App) SignOut(ctx context.Context) error {
	err := a.auth.SignOut(ctx)
	a.gate.Lock()
	a.lastPrompts = nil
	if err != nil {
		return a.report(ctx, "sign out", err)
	}
	a.printf("Signed out.\n")
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	if err := a.auth.SendPasswordReset(ctx, email); err != nil {
		return a.report(ctx, "password reset", err)
	}
	a.printf("If the address is registered, a reset link is on its way.\n")
	return nil
}
