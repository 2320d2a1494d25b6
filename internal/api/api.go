// Package api defines the boundary between epics and the outside world.
//
// Epics only see the Client and MessageSource interfaces. The package ships
// a canned Fake (the values the demo backend returns), a Funcs double whose
// behaviour tests set per call, in-process message sources, and a
// gorilla/websocket MessageSource for a real socket.
package api

import (
	"context"
	"errors"

	"github.com/roach88/epicflow/internal/action"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotImplemented is returned by Funcs for calls without a function.
	ErrNotImplemented = errors.New("not implemented")
)

// Client is the request/response API used by the epics. Every call honours
// ctx cancellation.
type Client interface {
	Login(ctx context.Context, creds action.Credentials) (action.Entity, error)
	FetchUser(ctx context.Context, id string) (action.User, error)
	FetchProduct(ctx context.Context, id string) (action.Product, error)
	UploadPhoto(ctx context.Context, file action.File) (action.Photo, error)
	Logout(ctx context.Context) error
	SearchProducts(ctx context.Context, phrase string) ([]action.Product, error)
}

// MessageSource opens push subscriptions.
type MessageSource interface {
	Open(ctx context.Context) (Subscription, error)
}

// Subscription is an open message feed. Messages closes when the feed ends,
// whether because the remote side stopped, ctx ended or Close was called.
type Subscription interface {
	Messages() <-chan string
	Close() error
}
