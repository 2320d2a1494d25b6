package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/clock"
)

func TestFake_CannedAnswers(t *testing.T) {
	ctx := context.Background()
	f := NewFake()

	e, err := f.Login(ctx, action.Credentials{Login: "l", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, action.Entity{ID: "1"}, e)

	u, err := f.FetchUser(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, action.User{ID: "7", FirstName: "first name", LastName: "last name"}, u)

	p, err := f.FetchProduct(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, action.Product{ID: "3", Name: "product name"}, p)

	ph, err := f.UploadPhoto(ctx, action.File{Name: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "//some-photo", ph.URL)

	require.NoError(t, f.Logout(ctx))

	ps, err := f.SearchProducts(ctx, "shoe")
	require.NoError(t, err)
	assert.Equal(t, []action.Product{{ID: "1", Name: "shoe 1"}}, ps)

	assert.Equal(t, []string{
		"login:l", "fetchUser:7", "fetchProduct:3", "uploadPhoto:a.png", "logout:", "searchProducts:shoe",
	}, f.Calls())
}

func TestFake_ConfiguredRecords(t *testing.T) {
	ctx := context.Background()
	f := &Fake{
		Users:        map[string]action.User{"1": {ID: "1", FirstName: "Ada"}},
		Products:     map[string]action.Product{"1": {ID: "1", Name: "lamp"}},
		FailProducts: map[string]bool{"2": true},
		PhotoPrefix:  "//cdn/",
	}

	_, err := f.FetchUser(ctx, "9")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.FetchProduct(ctx, "3")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.FetchProduct(ctx, "2")
	assert.Error(t, err)

	ph, err := f.UploadPhoto(ctx, action.File{Name: "x.png"})
	require.NoError(t, err)
	assert.Equal(t, "//cdn/x.png", ph.URL)
}

func TestFake_LatencyHonoursCancel(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	f := &Fake{Latency: time.Second, Clock: clk}
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := f.FetchProduct(ctx, "1")
		errc <- err
	}()

	wait, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, clk.BlockUntil(wait, 1))
	cancel()

	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("call did not return after cancel")
	}
}

func TestFake_LatencyElapses(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	f := &Fake{Latency: time.Second, Clock: clk}

	errc := make(chan error, 1)
	go func() {
		_, err := f.FetchUser(context.Background(), "1")
		errc <- err
	}()

	wait, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, clk.BlockUntil(wait, 1))
	clk.Advance(time.Second)

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("call did not return after latency")
	}
}

func TestFuncs_NotImplemented(t *testing.T) {
	ctx := context.Background()
	var f Funcs

	_, err := f.Login(ctx, action.Credentials{})
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.ErrorIs(t, f.Logout(ctx), ErrNotImplemented)
	_, err = f.SearchProducts(ctx, "x")
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestFuncs_Delegates(t *testing.T) {
	f := Funcs{FetchProductFunc: func(_ context.Context, id string) (action.Product, error) {
		return action.Product{ID: id, Name: "custom"}, nil
	}}
	p, err := f.FetchProduct(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
}
