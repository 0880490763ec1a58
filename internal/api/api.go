// Package api is the single entry point used by every transport (HTTP, gRPC, subscribers) to
// reach the app's features. Methods are prefixed with the module they belong to, e.g. ItemCreate.
package api

import (
	"context"

	"github.com/prashantkr001/item-service/internal/item"
)

type itemService interface {
	Create(ctx context.Context, name string) (string, error)
	Update(ctx context.Context, id, name string) error
	Get(ctx context.Context, id string) (*item.Item, error)
	Delete(ctx context.Context, id string) error
}

// API holds the services of all the modules which are exposed
type API struct {
	itemService itemService
}

func NewService(itSvc itemService) *API {
	return &API{itemService: itSvc}
}
