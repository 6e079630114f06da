package common

import (
	"io/fs"
	"time"
)

const (
	AppName = "xmpublish"
	Version = "0.1.0"
)

// Log field keys, in the order the formatter displays them.
const (
	HostName   = "Host"
	SessionID  = "Session"
	FileName   = "File"
	RemotePath = "Remote"
)

// LogFieldsOrder is the display order used by logger.Formatter.
var LogFieldsOrder = []string{HostName, SessionID, FileName, RemotePath}

const (
	DefaultSSHPort = 22
	// DefaultTimeout bounds dialing and the SSH handshake.
	DefaultTimeout = 30 * time.Second
	// DefaultKnownHostsFile is resolved against the user's home directory.
	DefaultKnownHostsFile = ".ssh/known_hosts"
	// DefaultLogFileName is the link name the rotating file writer maintains.
	DefaultLogFileName = "xmpublish.log"
)

const (
	// FileMode0755 represents rwxr-xr-x
	FileMode0755 fs.FileMode = 0755
	// FileMode0644 represents rw-r--r--
	FileMode0644 fs.FileMode = 0644
)

// SessionState is the observable state of a publishing session.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnected
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}
