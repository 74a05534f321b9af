package api

import (
	"context"

	"github.com/rebeliceyang/lazyadmin/internal/entity"
)

func withEntity(ctx context.Context, e *entity.Entity) context.Context {
	return context.WithValue(ctx, entityKey, e)
}

func entityFrom(ctx context.Context) *entity.Entity {
	e, _ := ctx.Value(entityKey).(*entity.Entity)
	return e
}
