package surreal

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// SurrealDB reports most failures as text, so classification goes by
// message fragment. Order matters: the first match wins.
var messageClasses = []struct {
	fragment string
	class    error
}{
	{"already exists", common.ErrAlreadyExists},
	{"already contains", common.ErrAlreadyExists},
	{"not allowed", common.ErrPermissionDenied},
	{"permission", common.ErrPermissionDenied},
	{"problem with authentication", common.ErrUnauthenticated},
	{"invalid authentication", common.ErrUnauthenticated},
	{"token has expired", common.ErrUnauthenticated},
	{"cannot unmarshal", common.ErrMalformed},
	{"cbor:", common.ErrMalformed},
	{"does not exist", common.ErrNotFound},
}

// MapError classifies a SurrealDB client error. Anything unrecognized is
// treated as ErrUnavailable.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.Wrap(common.ErrUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	for _, mc := range messageClasses {
		if strings.Contains(msg, mc.fragment) {
			return common.Wrap(mc.class, err)
		}
	}
	return common.Wrap(common.ErrUnavailable, err)
}
