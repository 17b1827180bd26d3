package models

// IdentityKind tells whether a user arrived or left.
type IdentityKind int

const (
	SignedIn IdentityKind = iota + 1
	SignedOut
)

func (k IdentityKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

// IdentityEvent is emitted by the identity client. OwnerID is empty for
// SignedOut.
type IdentityEvent struct {
	Kind    IdentityKind
	OwnerID string
}
