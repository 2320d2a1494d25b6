package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/clock"
)

// Fake is an in-memory Client with canned responses.
//
// The zero value answers like the demo backend: login yields entity "1",
// any user id resolves to a user named "first name last name", any product
// id to "product name", uploads to "//some-photo" and searches to a single
// "<phrase> 1" product. Setting Users or Products restricts lookups to those
// records.
type Fake struct {
	// Latency delays every call on Clock (clock.Real when nil).
	Latency time.Duration
	Clock   clock.Clock

	Entity   action.Entity
	Users    map[string]action.User
	Products map[string]action.Product
	// PhotoPrefix, when set, makes uploads return PhotoPrefix + file name.
	PhotoPrefix string
	// FailProducts lists product ids whose fetch fails.
	FailProducts map[string]bool

	mu    sync.Mutex
	calls []string
}

// NewFake returns a Fake with the demo backend's answers.
func NewFake() *Fake {
	return &Fake{}
}

// Calls returns the calls made so far, formatted as "name:arg".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) begin(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	clk := f.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	clock.Sleep(clk, f.Latency, ctx.Done())
	return ctx.Err()
}

// Login implements Client.
func (f *Fake) Login(ctx context.Context, creds action.Credentials) (action.Entity, error) {
	if err := f.begin(ctx, "login:"+creds.Login); err != nil {
		return action.Entity{}, err
	}
	if f.Entity.ID == "" {
		return action.Entity{ID: "1"}, nil
	}
	return f.Entity, nil
}

// FetchUser implements Client.
func (f *Fake) FetchUser(ctx context.Context, id string) (action.User, error) {
	if err := f.begin(ctx, "fetchUser:"+id); err != nil {
		return action.User{}, err
	}
	if f.Users == nil {
		return action.User{ID: id, FirstName: "first name", LastName: "last name"}, nil
	}
	u, ok := f.Users[id]
	if !ok {
		return action.User{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return u, nil
}

// FetchProduct implements Client.
func (f *Fake) FetchProduct(ctx context.Context, id string) (action.Product, error) {
	if err := f.begin(ctx, "fetchProduct:"+id); err != nil {
		return action.Product{}, err
	}
	if f.FailProducts[id] {
		return action.Product{}, fmt.Errorf("fetch product %q: backend unavailable", id)
	}
	if f.Products == nil {
		return action.Product{ID: id, Name: "product name"}, nil
	}
	p, ok := f.Products[id]
	if !ok {
		return action.Product{}, fmt.Errorf("product %q: %w", id, ErrNotFound)
	}
	return p, nil
}

// UploadPhoto implements Client.
func (f *Fake) UploadPhoto(ctx context.Context, file action.File) (action.Photo, error) {
	if err := f.begin(ctx, "uploadPhoto:"+file.Name); err != nil {
		return action.Photo{}, err
	}
	if f.PhotoPrefix == "" {
		return action.Photo{URL: "//some-photo"}, nil
	}
	return action.Photo{URL: f.PhotoPrefix + file.Name}, nil
}

// Logout implements Client.
func (f *Fake) Logout(ctx context.Context) error {
	return f.begin(ctx, "logout:")
}

// SearchProducts implements Client.
func (f *Fake) SearchProducts(ctx context.Context, phrase string) ([]action.Product, error) {
	if err := f.begin(ctx, "searchProducts:"+phrase); err != nil {
		return nil, err
	}
	return []action.Product{{ID: "1", Name: phrase + " 1"}}, nil
}
