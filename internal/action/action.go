package action

// Kind discriminates actions. Values match the action type names used on
// the wire.
type Kind string

const (
	KindPing                 Kind = "ping"
	KindPong                 Kind = "pong"
	KindEndGame              Kind = "endGame"
	KindLogin                Kind = "login"
	KindFetchUser            Kind = "fetchUser"
	KindSetUser              Kind = "setUser"
	KindFetchProduct         Kind = "fetchProduct"
	KindSetProduct           Kind = "setProduct"
	KindFetchSelectedProduct Kind = "fetchSelectedProduct"
	KindSetSelectedProduct   Kind = "setSelectedProduct"
	KindUploadPhotos         Kind = "uploadPhotos"
	KindSetPhotos            Kind = "setPhotos"
	KindLogout               Kind = "logout"
	KindReset                Kind = "reset"
	KindNavigateHome         Kind = "navigateHome"
	KindStartListening       Kind = "startListeningFromWebSocket"
	KindStopListening        Kind = "stopListeningFromWebSocket"
	KindSetMessage           Kind = "setMessage"
	KindSearchProduct        Kind = "searchProduct"
	KindSetProducts          Kind = "setProducts"
)

// Action is the sealed interface implemented by every action type.
type Action interface {
	Kind() Kind
	action()
}

type (
	Ping    struct{}
	Pong    struct{}
	EndGame struct{}

	// Login starts the login-then-fetch-user chain.
	Login struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	FetchUser struct {
		ID string `json:"id"`
	}
	SetUser struct {
		User User `json:"user"`
	}

	FetchProduct struct {
		ID string `json:"id"`
	}
	SetProduct struct {
		Product Product `json:"product"`
	}
	FetchSelectedProduct struct {
		ID string `json:"id"`
	}
	SetSelectedProduct struct {
		Product Product `json:"product"`
	}

	UploadPhotos struct {
		Files []File `json:"files"`
	}
	// SetPhotos carries the uploaded URLs in the order the files were given.
	SetPhotos struct {
		PhotoURLs []string `json:"photoUrls"`
	}

	Logout       struct{}
	Reset        struct{}
	NavigateHome struct{}

	StartListening struct{}
	// StopListening releases every open message subscription.
	StopListening struct{}
	SetMessage    struct {
		Message string `json:"message"`
	}

	SearchProduct struct {
		SearchPhrase string `json:"searchPhrase"`
	}
	SetProducts struct {
		Products []Product `json:"products"`
	}
)

func (Ping) Kind() Kind                 { return KindPing }
func (Pong) Kind() Kind                 { return KindPong }
func (EndGame) Kind() Kind              { return KindEndGame }
func (Login) Kind() Kind                { return KindLogin }
func (FetchUser) Kind() Kind            { return KindFetchUser }
func (SetUser) Kind() Kind              { return KindSetUser }
func (FetchProduct) Kind() Kind         { return KindFetchProduct }
func (SetProduct) Kind() Kind           { return KindSetProduct }
func (FetchSelectedProduct) Kind() Kind { return KindFetchSelectedProduct }
func (SetSelectedProduct) Kind() Kind   { return KindSetSelectedProduct }
func (UploadPhotos) Kind() Kind         { return KindUploadPhotos }
func (SetPhotos) Kind() Kind            { return KindSetPhotos }
func (Logout) Kind() Kind               { return KindLogout }
func (Reset) Kind() Kind                { return KindReset }
func (NavigateHome) Kind() Kind         { return KindNavigateHome }
func (StartListening) Kind() Kind       { return KindStartListening }
func (StopListening) Kind() Kind        { return KindStopListening }
func (SetMessage) Kind() Kind           { return KindSetMessage }
func (SearchProduct) Kind() Kind        { return KindSearchProduct }
func (SetProducts) Kind() Kind          { return KindSetProducts }

func (Ping) action()                 {}
func (Pong) action()                 {}
func (EndGame) action()              {}
func (Login) action()                {}
func (FetchUser) action()            {}
func (SetUser) action()              {}
func (FetchProduct) action()         {}
func (SetProduct) action()           {}
func (FetchSelectedProduct) action() {}
func (SetSelectedProduct) action()   {}
func (UploadPhotos) action()         {}
func (SetPhotos) action()            {}
func (Logout) action()               {}
func (Reset) action()                {}
func (NavigateHome) action()         {}
func (StartListening) action()       {}
func (StopListening) action()        {}
func (SetMessage) action()           {}
func (SearchProduct) action()        {}
func (SetProducts) action()          {}

// As narrows a to the concrete action type T.
func As[T Action](a Action) (T, bool) {
	t, ok := a.(T)
	return t, ok
}

// OfKind returns a predicate matching any of the given kinds.
func OfKind(kinds ...Kind) func(Action) bool {
	return func(a Action) bool {
		for _, k := range kinds {
			if a.Kind() == k {
				return true
			}
		}
		return false
	}
}
