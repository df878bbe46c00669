package testutil

import (
	"context"
	"net/http"
	"time"

	id "civic/pkg/domain"
	"civic/pkg/requestcontext"
)

// AsActor returns req carrying an authenticated actor, simulating what the
// auth middleware does after validating a bearer token.
func AsActor(req *http.Request, userID id.UserID, role id.Role) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), userID, role))
}

// AsCitizen is AsActor with a fresh citizen id, returned for later assertions.
func AsCitizen(req *http.Request) (*http.Request, id.UserID) {
	userID := id.NewUserID()
	return AsActor(req, userID, id.RoleCitizen), userID
}

// ActorContext builds a context for service tests.
func ActorContext(userID id.UserID, role id.Role) context.Context {
	return requestcontext.WithActor(context.Background(), userID, role)
}

// At pins the request-scoped clock of ctx.
func At(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}
