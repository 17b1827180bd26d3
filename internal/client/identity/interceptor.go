package identity

import (
	"context"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token and, when the server
// answers Unauthenticated "token expired", refreshes the tokens once and
// retries the call.
func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := c.tokens()

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || method == MethodRefreshToken {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	refreshReq, rerr := structpb.NewStruct(map[string]any{"refresh_token": refresh})
	if rerr != nil {
		return err
	}
	refreshReply := new(structpb.Struct)
	if rerr := invoker(withAccessToken(ctx, ""), MethodRefreshToken, refreshReq, refreshReply, cc, opts...); rerr != nil {
		return rerr
	}

	newAccess, newRefresh, rerr := tokensFrom(refreshReply)
	if rerr != nil {
		return rerr
	}
	if newRefresh == "" {
		newRefresh = refresh
	}
	c.setTokens(newAccess, newRefresh)
	c.log.Debug(ctx, "access token refreshed", "method", method)

	return invoker(withAccessToken(ctx, newAccess), method, req, reply, cc, opts...)
}
