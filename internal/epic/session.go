package epic

import (
	"context"
	"fmt"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
	"github.com/roach88/epicflow/internal/timing"
)

// loginOp logs in and then fetches the profile of the returned entity. The
// second call only starts once the first has succeeded.
func loginOp(deps Dependencies) stream.Op[action.Login, action.Action] {
	return func(ctx context.Context, a action.Login, emit func(action.Action) bool) error {
		entity, err := deps.API.Login(ctx, action.Credentials{Login: a.Login, Password: a.Password})
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		u, err := deps.API.FetchUser(ctx, entity.ID)
		if err != nil {
			return fmt.Errorf("fetch user %q: %w", entity.ID, err)
		}
		emit(action.SetUser{User: u})
		return nil
	}
}

// Login runs the login chain for the latest login action.
func Login(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.Login](ctx, in),
		options(deps, "login", stream.Switch, stream.Terminate),
		loginOp(deps))
}

// LoginThrottle is Login with repeated submissions collapsed: only the
// first login within each window starts the chain.
func LoginThrottle(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	cfg := timing.ThrottleConfig{Window: orDefault(deps.LoginThrottle, DefaultLoginThrottle), Leading: true}
	throttled, err := timing.ThrottleChan(ctx, deps.clock(), cfg, ofType[action.Login](ctx, in))
	if err != nil {
		return failed(ctx, in, err)
	}
	return stream.Dispatch(ctx, throttled,
		options(deps, "loginThrottle", stream.Switch, stream.Terminate),
		loginOp(deps))
}

// UploadPhotos uploads all files of the latest request in parallel and
// emits their URLs in file order. An empty request emits nothing.
func UploadPhotos(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.UploadPhotos](ctx, in),
		options(deps, "uploadPhotos", stream.Switch, stream.Terminate),
		func(ctx context.Context, a action.UploadPhotos, emit func(action.Action) bool) error {
			if len(a.Files) == 0 {
				return nil
			}
			photos, err := stream.ForkJoin(ctx, a.Files, deps.API.UploadPhoto)
			if err != nil {
				return err
			}
			urls := make([]string, len(photos))
			for i, p := range photos {
				urls[i] = p.URL
			}
			emit(action.SetPhotos{PhotoURLs: urls})
			return nil
		})
}

// Logout ends the session and emits reset followed by navigateHome.
func Logout(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.Logout](ctx, in),
		options(deps, "logout", stream.Switch, stream.Terminate),
		func(ctx context.Context, _ action.Logout, emit func(action.Action) bool) error {
			if err := deps.API.Logout(ctx); err != nil {
				return err
			}
			if !emit(action.Reset{}) {
				return nil
			}
			emit(action.NavigateHome{})
			return nil
		})
}
