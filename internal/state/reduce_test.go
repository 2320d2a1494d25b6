package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/epicflow/internal/action"
)

func TestReduce_SetUser(t *testing.T) {
	s := Reduce(Initial(), action.SetUser{User: action.User{ID: "1", FirstName: "first name"}})
	require.NotNil(t, s.User)
	assert.Equal(t, "first name", s.User.FirstName)
}

func TestReduce_SetProductKeepsOthers(t *testing.T) {
	s := Fold(Initial(),
		action.SetProduct{Product: action.Product{ID: "1", Name: "a"}},
		action.SetProduct{Product: action.Product{ID: "2", Name: "b"}},
		action.SetProduct{Product: action.Product{ID: "1", Name: "c"}},
	)
	assert.Equal(t, map[string]action.Product{
		"1": {ID: "1", Name: "c"},
		"2": {ID: "2", Name: "b"},
	}, s.ProductByID)
}

func TestReduce_SetMessageAppends(t *testing.T) {
	s := Fold(Initial(), action.SetMessage{Message: "a"}, action.SetMessage{Message: "b"})
	assert.Equal(t, []string{"a", "b"}, s.Messages)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := Fold(Initial(),
		action.SetProduct{Product: action.Product{ID: "1"}},
		action.SetMessage{Message: "a"},
	)
	snapshot, err := json.Marshal(before)
	require.NoError(t, err)

	_ = Reduce(before, action.SetProduct{Product: action.Product{ID: "2"}})
	_ = Reduce(before, action.SetMessage{Message: "b"})

	after, err := json.Marshal(before)
	require.NoError(t, err)
	assert.JSONEq(t, string(snapshot), string(after))
}

func TestReduce_MessagesDoNotAlias(t *testing.T) {
	base := Fold(Initial(), action.SetMessage{Message: "a"})
	left := Reduce(base, action.SetMessage{Message: "left"})
	right := Reduce(base, action.SetMessage{Message: "right"})

	assert.Equal(t, []string{"a", "left"}, left.Messages)
	assert.Equal(t, []string{"a", "right"}, right.Messages)
}

func TestReduce_ResetReturnsInitial(t *testing.T) {
	s := Fold(Initial(),
		action.SetUser{User: action.User{ID: "1"}},
		action.SetPhotos{PhotoURLs: []string{"//p"}},
		action.SetMessage{Message: "m"},
		action.Reset{},
	)
	assert.Equal(t, Initial(), s)
}

func TestReduce_TriggersLeaveStateUnchanged(t *testing.T) {
	base := Fold(Initial(), action.SetUser{User: action.User{ID: "1"}})

	triggers := []action.Action{
		action.Ping{}, action.Pong{}, action.EndGame{},
		action.Login{Login: "l", Password: "p"},
		action.FetchUser{ID: "1"},
		action.FetchProduct{ID: "1"},
		action.FetchSelectedProduct{ID: "1"},
		action.UploadPhotos{},
		action.Logout{}, action.NavigateHome{},
		action.StartListening{}, action.StopListening{},
		action.SearchProduct{SearchPhrase: "x"},
	}
	for _, a := range triggers {
		assert.Equal(t, base, Reduce(base, a), a.Kind())
	}
}

func TestReduce_SetProductsEmptyIsNotNil(t *testing.T) {
	s := Reduce(Initial(), action.SetProducts{})
	assert.NotNil(t, s.Products)
	assert.Empty(t, s.Products)
}

func TestReduce_SelectedProductAndPhotos(t *testing.T) {
	s := Fold(Initial(),
		action.SetSelectedProduct{Product: action.Product{ID: "9", Name: "n"}},
		action.SetPhotos{PhotoURLs: []string{"//a", "//b"}},
	)
	require.NotNil(t, s.SelectedProduct)
	assert.Equal(t, "9", s.SelectedProduct.ID)
	assert.Equal(t, []string{"//a", "//b"}, s.PhotoURLs)
}

func TestFixed_Snapshot(t *testing.T) {
	st := Reduce(Initial(), action.SetMessage{Message: "x"})
	var r Reader = Fixed(st)
	assert.Equal(t, st, r.Snapshot())
}
