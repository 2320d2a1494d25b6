package epic

import (
	"fmt"
	"sort"
)

var registry = map[string]Epic{
	"ping":                 Ping,
	"pong":                 Pong,
	"fetchUser":            FetchUser,
	"fetchProduct":         FetchProduct,
	"fetchProductRecover":  FetchProductRecover,
	"fetchSelectedProduct": FetchSelectedProduct,
	"login":                Login,
	"loginThrottle":        LoginThrottle,
	"uploadPhotos":         UploadPhotos,
	"logout":               Logout,
	"listenMessages":       ListenMessages,
	"searchProduct":        SearchProduct,
}

// defaultSet is the root epic of the demo application.
var defaultSet = []string{
	"ping",
	"pong",
	"fetchSelectedProduct",
	"login",
	"uploadPhotos",
	"listenMessages",
	"fetchProductRecover",
}

// Lookup returns the epic registered under name.
func Lookup(name string) (Named, bool) {
	e, ok := registry[name]
	if !ok {
		return Named{}, false
	}
	return Named{Name: name, Epic: e}, true
}

// Names returns every registered epic name in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultNames returns the names of the default epic set.
func DefaultNames() []string {
	return append([]string(nil), defaultSet...)
}

// Resolve looks up every name, reporting the first unknown one.
func Resolve(names []string) ([]Named, error) {
	out := make([]Named, 0, len(names))
	for _, n := range names {
		e, ok := Lookup(n)
		if !ok {
			return nil, &UnknownEpicError{Name: n}
		}
		out = append(out, e)
	}
	return out, nil
}

// Default returns the default epic set.
func Default() []Named {
	out, _ := Resolve(defaultSet)
	return out
}

// UnknownEpicError reports a name with no registered epic.
type UnknownEpicError struct {
	Name string
}

func (e *UnknownEpicError) Error() string {
	return fmt.Sprintf("unknown epic %q", e.Name)
}
