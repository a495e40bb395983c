package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/target"
)

type Repo struct{ Source string }

type Greeter interface{ Greet(name string) string }

type english struct{}

func (english) Greet(name string) string { return "hello " + name }

func TestContainerSet(t *testing.T) {
	// Arrange
	c := dispatch.NewContainer()
	repo := &Repo{Source: "di"}

	// Act
	require.Nil(t, c.Set(repo))
	require.Nil(t, dispatch.Bind[Greeter](c, english{}))

	// Assert
	require.True(t, c.Has(target.TypeOf[*Repo]()))
	require.True(t, c.Has(target.TypeOf[Greeter]()))
	require.True(t, c.Has(target.ContextID))
	require.False(t, c.Has(target.TypeOf[Repo]()))

	v, err := c.Resolve(context.Background(), target.TypeOf[*Repo]())
	require.Nil(t, err)
	require.Same(t, repo, v.Interface())

	v, err = c.Resolve(context.Background(), target.TypeOf[Greeter]())
	require.Nil(t, err)
	require.Equal(t, "hello ada", v.Interface().(Greeter).Greet("ada"))

	_, err = c.Resolve(context.Background(), target.TypeOf[Repo]())
	require.ErrorIs(t, err, dispatch.ErrUnresolvableDependency)

	require.ErrorIs(t, c.Set(nil), switchback.ErrNotValid)
	require.ErrorIs(t, c.SetAs("", repo), switchback.ErrMissingData)
}

func TestContainerContext(t *testing.T) {
	// Arrange
	type key string
	ctx := context.WithValue(context.Background(), key("k"), "v")

	// Act
	v, err := dispatch.NewContainer().Resolve(ctx, target.ContextID)

	// Assert
	require.Nil(t, err)
	require.Equal(t, "v", v.Interface().(context.Context).Value(key("k")))
}

func TestContainerDefer(t *testing.T) {
	// Arrange
	c := dispatch.NewContainer()
	var calls int32
	err := c.Defer(target.TypeOf[*Repo](), func(ctx context.Context, r dispatch.Resolver) (any, error) {
		atomic.AddInt32(&calls, 1)
		return &Repo{Source: "deferred"}, nil
	})
	require.Nil(t, err)

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Resolve(context.Background(), target.TypeOf[*Repo]())
			require.Nil(t, err)
			require.Equal(t, "deferred", v.Interface().(*Repo).Source)
		}()
	}

	wg.Wait()

	// Assert
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, []target.TypeID{target.TypeOf[*Repo]()}, c.Deferred())
	require.True(t, c.Has(target.TypeOf[*Repo]()))
	require.ErrorIs(t, c.Defer(target.TypeOf[*Repo](), nil), switchback.ErrMissingData)
	require.ErrorIs(
		t,
		c.Defer(target.TypeOf[*Repo](), func(context.Context, dispatch.Resolver) (any, error) { return nil, nil }),
		switchback.ErrExists,
	)
}

func TestContainerDeferFailure(t *testing.T) {
	// Arrange
	c := dispatch.NewContainer()
	errDial := errors.New("dial")
	require.Nil(t, c.Defer(target.TypeOf[*Repo](), func(context.Context, dispatch.Resolver) (any, error) {
		return nil, errDial
	}))
	require.Nil(t, c.Defer(target.TypeOf[Greeter](), func(context.Context, dispatch.Resolver) (any, error) {
		return nil, nil
	}))

	// Act
	_, err := c.Resolve(context.Background(), target.TypeOf[*Repo]())
	_, nilErr := c.Resolve(context.Background(), target.TypeOf[Greeter]())

	// Assert
	require.ErrorIs(t, err, dispatch.ErrUnresolvableDependency)
	require.ErrorIs(t, nilErr, dispatch.ErrUnresolvableDependency)
}

func TestContainerScope(t *testing.T) {
	// Arrange
	parent := dispatch.NewContainer()
	require.Nil(t, parent.Set(&Repo{Source: "parent"}))
	require.Nil(t, dispatch.Bind[Greeter](parent, english{}))

	// Act
	child, err := parent.Scope(&Repo{Source: "child"})

	// Assert
	require.Nil(t, err)

	v, err := child.Resolve(context.Background(), target.TypeOf[*Repo]())
	require.Nil(t, err)
	require.Equal(t, "child", v.Interface().(*Repo).Source)

	v, err = parent.Resolve(context.Background(), target.TypeOf[*Repo]())
	require.Nil(t, err)
	require.Equal(t, "parent", v.Interface().(*Repo).Source)

	require.True(t, child.Has(target.TypeOf[Greeter]()))

	_, err = parent.Scope(nil)
	require.ErrorIs(t, err, switchback.ErrNotValid)
}

type Service struct {
	Repo *Repo
	Err  error
	Req  any
}

func TestContainerDeferScoped(t *testing.T) {
	// Arrange
	type key string
	parent := dispatch.NewContainer()
	require.Nil(t, parent.Set(&Repo{Source: "parent"}))
	require.Nil(t, parent.Defer(target.TypeOf[*Service](), func(ctx context.Context, r dispatch.Resolver) (any, error) {
		v, err := r.Resolve(ctx, target.TypeOf[*Repo]())
		if err != nil {
			return nil, err
		}

		return &Service{Repo: v.Interface().(*Repo), Err: ctx.Err(), Req: ctx.Value(key("req"))}, nil
	}))

	first, err := parent.Scope(&Repo{Source: "first"})
	require.Nil(t, err)
	second, err := parent.Scope(&Repo{Source: "second"})
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key("req"), "first"))
	cancel()

	// Act
	a, err := first.Resolve(ctx, target.TypeOf[*Service]())
	require.Nil(t, err)
	b, err := second.Resolve(context.Background(), target.TypeOf[*Service]())
	require.Nil(t, err)

	// Assert
	svc := a.Interface().(*Service)
	require.Same(t, svc, b.Interface())
	require.Equal(t, "parent", svc.Repo.Source)
	require.Nil(t, svc.Err)
	require.Equal(t, "first", svc.Req)
}
