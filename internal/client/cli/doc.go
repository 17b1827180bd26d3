// Package cli provides the interactive journal shell.
//
// It wires configuration, the remote store gateway, the identity client, the
// cache engine, username search, the PIN gate and the prompt generator into
// a line-oriented REPL. Typical flow: sign in, list and edit drafts, browse
// other users' published drafts, and unlock hidden drafts with the device
// PIN.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
