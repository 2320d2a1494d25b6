package action

// Entity is the minimal identified record returned by the login call.
type Entity struct {
	ID string `json:"id"`
}

// User is the logged-in user profile.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Product is a catalogue entry.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// File is a photo queued for upload.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// Photo is the result of a single upload.
type Photo struct {
	URL string `json:"url"`
}

// Credentials is the payload of the login call.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
