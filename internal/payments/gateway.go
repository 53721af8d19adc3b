package payments

import "context"

//go:generate mockgen -source=gateway.go -destination=mocks/gateway.go -package=mocks

// Gateway is one provider's session protocol. Both calls are safe to retry.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error)
	VerifySession(ctx context.Context, req VerifyRequest) (Session, error)
}
