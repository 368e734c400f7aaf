package provisioning

//go:generate mockgen -destination=mock/mock_loader.go -package=mockprovisioning -source=loader.go

import (
	"context"

	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
)

// Loader turns a model URL into a template
type Loader interface {
	Load(ctx context.Context, url string) (*embodiment.Template, error)
}
