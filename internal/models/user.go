package models

import "time"

// User represents a chat account. Local accounts carry a username and a
// password hash; federated accounts carry provider identifiers instead. An
// account upgraded from local to federated carries both.
type User struct {
	ID            string    `json:"id"`
	Username      *string   `json:"username,omitempty"`
	Email         *string   `json:"email,omitempty"`
	PasswordHash  *string   `json:"-"` // Never expose this to the client
	OAuthProvider *string   `json:"oauthProvider,omitempty"`
	OAuthID       *string   `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DisplayName picks the best available name for message attribution.
func (u User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	return u.ID
}

// IsFederated reports whether the account is linked to an identity provider.
func (u User) IsFederated() bool {
	return u.OAuthProvider != nil && u.OAuthID != nil
}
