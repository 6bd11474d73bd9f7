package application

import (
	"context"

	"fly-voice/internal/domain"
)

type ReplyGenerator interface {
	Name() string
	Reply(ctx context.Context, history []domain.Message) (string, error)
}

// Loader is implemented by engines that need a start-up check before serving.
type Loader interface {
	Load(ctx context.Context) error
}
