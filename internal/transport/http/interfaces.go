package http

import (
	"context"

	"anyumarket/internal/services"
	"anyumarket/pkg/contracts/domain"
)

// DocumentServiceInterface is what the documents handler needs
type DocumentServiceInterface interface {
	List(ctx context.Context) ([]services.Document, error)
	Resolve(ctx context.Context, filename string) (string, error)
	Catalog(ctx context.Context) (domain.Catalog, error)
}

// HealthServiceInterface is what the health handler needs
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
}
