package echoweb

import (
	"context"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// fetchAll runs the fetches of a view concurrently and waits for all of them.
// The first failure cancels the others. Nothing is returned for a request that went away.
func fetchAll(ctx echo.Context, fetches ...func(context.Context) error) error {
	reqCtx := ctx.Request().Context()
	g, gctx := errgroup.WithContext(reqCtx)
	for _, fetch := range fetches {
		fetch := fetch
		g.Go(func() error { return fetch(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return reqCtx.Err()
}
