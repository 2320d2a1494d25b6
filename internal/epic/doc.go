// Package epic contains the epics: functions from the stream of dispatched
// actions to a stream of follow-up actions.
//
// An epic selects the action kinds it reacts to, starts an asynchronous
// operation for each through stream.Dispatch, and emits the actions that
// describe the result. Epics never touch state directly; they may read a
// snapshot through state.Reader.
//
// Policies used below:
//
//	switch   fetchUser, fetchSelectedProduct, login, uploadPhotos, logout
//	merge    fetchProduct, fetchProductRecover, searchProduct, listenMessages
//	concat   ping, pong
//
// loginThrottle and searchProduct rate-limit their input with package
// timing before dispatching.
package epic
