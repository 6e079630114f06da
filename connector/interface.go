package connector

import (
	"context"
	"io"
)

// ProgressFunc receives the cumulative number of bytes written so far.
type ProgressFunc func(transferred int64)

// Session is one SSH connection with an SFTP subsystem on top of it.
type Session interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	// ChangeDirectory makes p the directory that relative upload names resolve against.
	ChangeDirectory(p string) error
	WorkingDirectory() string
	UploadFile(ctx context.Context, r io.Reader, remoteName string, progress ProgressFunc) (int64, error)
	Close() error
}

// Dialer creates sessions. The returned session is not connected yet.
type Dialer interface {
	NewSession(cfg Config) (Session, error)
}
