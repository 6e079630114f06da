package connector

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type sshDialer struct{}

// NewDialer returns the SSH/SFTP Dialer.
func NewDialer() Dialer {
	return &sshDialer{}
}

func (d *sshDialer) NewSession(cfg Config) (Session, error) {
	cfg, err := validateConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to validate ssh connection parameters")
	}
	return &sshSession{id: uuid.NewString(), config: cfg}, nil
}

var _ Dialer = (*sshDialer)(nil)
