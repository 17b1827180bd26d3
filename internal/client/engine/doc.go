// Package engine keeps the in-memory view of the signed-in user's drafts and
// reconciles it with the remote store.
//
// Writes are optimistic. Create inserts locally first and removes the draft
// again if the store rejects it, so a failed create never leaves a phantom
// entry behind. Patch applies the delta to the single cached copy and keeps
// it even when the store call fails: losing the user's words is worse than
// showing an edit the store has not confirmed. Delete goes to the store first
// and only drops the local copy after it succeeds.
//
// Every list and count is tracked as a models.Slice with its own status, so
// views can render Loading, Empty, Error and Complete independently. An
// identity change discards everything; results of fetches started for the
// previous identity are dropped on arrival.
//
// All state changes happen under one mutex. Store calls run outside it and
// re-enter it to apply their results. Readers get deep-copied snapshots.
package engine
