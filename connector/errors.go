package connector

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrAuthentication matches any *AuthenticationError via errors.Is.
var ErrAuthentication = errors.New("ssh authentication failed")

// AuthenticationError is returned when the server rejected every offered credential.
type AuthenticationError struct {
	Endpoint string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication to %s failed: %v", e.Endpoint, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

func wrapHandshakeError(err error, endpoint string) error {
	if isAuthFailure(err) {
		return &AuthenticationError{Endpoint: endpoint, Err: err}
	}
	return errors.Wrapf(err, "ssh handshake with %s failed", endpoint)
}
