package identity

import (
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mapError converts a gRPC status into a common sentinel, keeping the
// server's message.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return common.Wrap(common.ErrUnavailable, err)
	}

	var class error
	switch st.Code() {
	case codes.Unauthenticated:
		class = common.ErrUnauthenticated
		if st.Message() == common.ErrRefreshTokenExpired.Error() {
			class = common.ErrRefreshTokenExpired
		}
	case codes.PermissionDenied:
		class = common.ErrPermissionDenied
	case codes.NotFound:
		class = common.ErrNotFound
	case codes.AlreadyExists:
		class = common.ErrAlreadyExists
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		class = common.ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
	return fmt.Errorf("%w: %s", class, st.Message())
}
