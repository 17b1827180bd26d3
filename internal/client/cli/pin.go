package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophjournal/internal/client/pingate"
	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// Pin manages the device PIN guarding hidden drafts.
//
//	pin set     store a new PIN (allowed with no PIN or while unlocked)
//	pin unlock  enter the PIN
//	pin lock    relock
//	pin clear   forget the PIN (only while unlocked)
func (a *App) Pin(ctx context.Context, args []string) error {
	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "set":
		pin, err := getSecret(a.reader, "New 4-digit PIN", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pin)
		if err := a.gate.SetPin(ctx, string(pin)); err != nil {
			return a.report(ctx, "pin set", err)
		}
		a.printf("PIN saved. Hidden drafts are locked.\n")

	case "unlock":
		pin, err := getSecret(a.reader, "PIN", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pin)
		st, err := a.gate.Enter(string(pin))
		if err != nil {
			return a.report(ctx, "pin unlock", err)
		}
		if st.Status != pingate.Unlocked {
			a.printf("Wrong PIN (%d failed attempts).\n", st.Attempts)
			return nil
		}
		a.printf("Unlocked.\n")

	case "lock":
		a.gate.Lock()
		a.printf("Locked.\n")

	case "clear":
		if a.gate.State().Status != pingate.Unlocked {
			return a.report(ctx, "pin clear", pingate.ErrLocked)
		}
		if err := a.gate.ClearPin(ctx); err != nil {
			return a.report(ctx, "pin clear", err)
		}
		a.printf("PIN removed.\n")

	default:
		a.printf("Usage: pin set|unlock|lock|clear (status: %s)\n", a.gate.State().Status)
	}
	return nil
}

// Hidden lists hidden drafts while the gate is unlocked.
func (a *App) Hidden(ctx context.Context) error {
	switch a.gate.State().Status {
	case pingate.NoPinSet:
		return a.report(ctx, "hidden", errors.New("set a PIN first with: pin set"))
	case pingate.Locked:
		return a.report(ctx, "hidden", pingate.ErrLocked)
	}

	ds := a.gate.Hidden(a.engine.Drafts())
	if len(ds) == 0 {
		a.printf("No hidden drafts.\n")
		return nil
	}
	a.printDrafts(ds)
	return nil
}
