package apiclient

import "time"

// Account is the signed-in user as returned by /v1/me.
type Account struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Session is the result of a successful login.
type Session struct {
	User    Account `json:"user"`
	Access  token   `json:"access"`
	Refresh token   `json:"refresh"`
}

// AccessToken returns the bearer token to send with requests.
func (s Session) AccessToken() string { return s.Access.Token }

// RefreshToken returns the long-lived token used to rotate the session.
func (s Session) RefreshToken() string { return s.Refresh.Token }

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}
