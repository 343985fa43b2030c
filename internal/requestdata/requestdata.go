package requestdata

import (
	"context"
)

type requestDataKey struct{}

// RequestData is attached to the request context by the auth middleware
// after token verification. UserID is the only identity the rest of the
// system trusts.
type RequestData struct {
	TokenString string
	UserID      uint
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
