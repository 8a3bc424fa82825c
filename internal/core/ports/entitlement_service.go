package ports

import (
	"context"

	"github.com/homeinfo/his/internal/core/domain"
)

// EntitlementService covers the entitlement operations of the public API.
type EntitlementService interface {
	// Check returns nil when the caller may use the named service.
	Check(ctx context.Context, rc domain.RequestContext, serviceName string) (*domain.Service, error)
	Grant(ctx context.Context, rc domain.RequestContext, accountID, serviceName string) error
	Revoke(ctx context.Context, rc domain.RequestContext, accountID, serviceName string) error
}
