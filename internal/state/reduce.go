package state

import (
	"maps"
	"slices"

	"github.com/roach88/epicflow/internal/action"
)

// Reduce returns the state that results from applying a to s.
//
// Reduce is total: triggers and unrecognised actions return s unchanged.
// It never mutates s.
func Reduce(s AppState, a action.Action) AppState {
	switch act := a.(type) {
	case action.SetUser:
		u := act.User
		s.User = &u
	case action.SetProduct:
		byID := make(map[string]action.Product, len(s.ProductByID)+1)
		maps.Copy(byID, s.ProductByID)
		byID[act.Product.ID] = act.Product
		s.ProductByID = byID
	case action.SetSelectedProduct:
		p := act.Product
		s.SelectedProduct = &p
	case action.SetPhotos:
		s.PhotoURLs = slices.Clone(act.PhotoURLs)
		if s.PhotoURLs == nil {
			s.PhotoURLs = []string{}
		}
	case action.SetMessage:
		msgs := make([]string, len(s.Messages), len(s.Messages)+1)
		copy(msgs, s.Messages)
		s.Messages = append(msgs, act.Message)
	case action.SetProducts:
		s.Products = slices.Clone(act.Products)
		if s.Products == nil {
			s.Products = []action.Product{}
		}
	case action.Reset:
		return Initial()
	}
	return s
}

// Fold applies actions to s in order.
func Fold(s AppState, actions ...action.Action) AppState {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}
