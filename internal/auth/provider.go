package auth

import "context"

// Identity is what a federated provider asserts about the person who just
// completed its consent flow.
type Identity struct {
	Provider    string
	SubjectID   string
	Email       string
	DisplayName string
}

// FederatedProvider abstracts the identity provider's authorization-code
// flow. The authenticator only needs a redirect URL to send the browser to
// and a way to turn the callback code into an Identity.
type FederatedProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}
