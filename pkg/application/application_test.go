package application

import (
	"context"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type stubController struct{ key string }

func (c *stubController) Register(*mux.Router) {}
func (c *stubController) Key() string         { return c.key }

type stubService struct{ name string }

func TestApplication_ControllersSortedByKey(t *testing.T) {
	t.Parallel()

	app := New(&ApplicationOptions{})
	app.RegisterControllers(&stubController{key: "/b"}, &stubController{key: "/a"}, &stubController{key: "/b"})

	got := app.Controllers()
	require.Len(t, got, 2)
	require.Equal(t, "/a", got[0].Key())
	require.Equal(t, "/b", got[1].Key())
}

func TestApplication_ServiceRegistry(t *testing.T) {
	t.Parallel()

	app := New(&ApplicationOptions{})
	svc := &stubService{name: "x"}
	app.RegisterServices(svc)

	got := app.Service(stubService{}).(*stubService)
	require.Same(t, svc, got)
	require.Panics(t, func() { app.Service(struct{ Other int }{}) })
}

func TestMigrationManager_RequiresPool(t *testing.T) {
	t.Parallel()

	app := New(&ApplicationOptions{})
	require.ErrorIs(t, app.Migrations().Up(context.Background()), ErrNoPool)
}
