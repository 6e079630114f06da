package publisher

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument matches every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotConnected is returned by Send before a successful Connect.
	ErrNotConnected = errors.New("publisher is not connected")
	// ErrTransferIncomplete is reported by Result.Err when fewer bytes than expected reached the server.
	ErrTransferIncomplete = errors.New("transfer incomplete")
)

const (
	msgUsernameRequired    = "Username is required."
	msgPasswordRequired    = "Password is required."
	msgNoFile              = "Specify file to be sent."
	msgEmptyFile           = "The file is empty."
	msgNoWorkingDirectory  = "Please specify the remote working directory."
	msgNoRemoteName        = "Specify the remote file name."
	msgUnknownStreamLength = "Unable to determine the length of the data stream."
)

// ArgumentError reports a missing or invalid caller-supplied value.
// Error returns Message verbatim.
type ArgumentError struct {
	Param   string
	Message string
}

func (e *ArgumentError) Error() string { return e.Message }

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func newArgumentError(param, message string) error {
	return &ArgumentError{Param: param, Message: message}
}
