package models

// User is the authenticated identity persisted under the "user" key.
// Authentication is simulated: there is no password storage, and the
// display name is either supplied at sign-up or derived from the
// email local-part at sign-in.
type User struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Session pairs the signed-in user with their current credit balance.
type Session struct {
	User    User `json:"user"`
	Credits int  `json:"credits"`
}
