package api

import (
	"context"

	"github.com/roach88/epicflow/internal/action"
)

// Funcs is a Client whose calls are delegated to optional function fields.
// Calls without a function fail with ErrNotImplemented.
type Funcs struct {
	LoginFunc          func(context.Context, action.Credentials) (action.Entity, error)
	FetchUserFunc      func(context.Context, string) (action.User, error)
	FetchProductFunc   func(context.Context, string) (action.Product, error)
	UploadPhotoFunc    func(context.Context, action.File) (action.Photo, error)
	LogoutFunc         func(context.Context) error
	SearchProductsFunc func(context.Context, string) ([]action.Product, error)
}

func (f Funcs) Login(ctx context.Context, c action.Credentials) (action.Entity, error) {
	if f.LoginFunc == nil {
		return action.Entity{}, ErrNotImplemented
	}
	return f.LoginFunc(ctx, c)
}

func (f Funcs) FetchUser(ctx context.Context, id string) (action.User, error) {
	if f.FetchUserFunc == nil {
		return action.User{}, ErrNotImplemented
	}
	return f.FetchUserFunc(ctx, id)
}

func (f Funcs) FetchProduct(ctx context.Context, id string) (action.Product, error) {
	if f.FetchProductFunc == nil {
		return action.Product{}, ErrNotImplemented
	}
	return f.FetchProductFunc(ctx, id)
}

func (f Funcs) UploadPhoto(ctx context.Context, file action.File) (action.Photo, error) {
	if f.UploadPhotoFunc == nil {
		return action.Photo{}, ErrNotImplemented
	}
	return f.UploadPhotoFunc(ctx, file)
}

func (f Funcs) Logout(ctx context.Context) error {
	if f.LogoutFunc == nil {
		return ErrNotImplemented
	}
	return f.LogoutFunc(ctx)
}

func (f Funcs) SearchProducts(ctx context.Context, phrase string) ([]action.Product, error) {
	if f.SearchProductsFunc == nil {
		return nil, ErrNotImplemented
	}
	return f.SearchProductsFunc(ctx, phrase)
}
