package connector

import (
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/mensylisir/xmpublish/common"
	"github.com/mensylisir/xmpublish/file"
	"github.com/mensylisir/xmpublish/logger"
	"github.com/mensylisir/xmpublish/util"
)

// AuthMethods returns the methods offered to the server, password first.
// cfg must already carry the key material; KeyFile is not read here.
func AuthMethods(cfg Config) ([]ssh.AuthMethod, error) {
	authMethods := make([]ssh.AuthMethod, 0, 2)

	if len(cfg.Password) > 0 {
		authMethods = append(authMethods, ssh.Password(cfg.Password))
	}

	if len(cfg.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey([]byte(cfg.PrivateKey))
		if err != nil {
			return nil, errors.Wrap(err, "the given SSH key could not be parsed")
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}
	return authMethods, nil
}

// HostKeyCallback verifies against KnownHostsFile, then ~/.ssh/known_hosts.
// Verification is skipped when InsecureIgnoreHostKey is set or no known_hosts file exists.
func HostKeyCallback(cfg Config) (ssh.HostKeyCallback, error) {
	endpoint := cfg.Endpoint()
	if cfg.InsecureIgnoreHostKey {
		logger.Log.WarnfHost(endpoint, "host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if cfg.KnownHostsFile != "" {
		knownHostsFile, err := util.ExpandPath(cfg.KnownHostsFile)
		if err != nil {
			return nil, err
		}
		callback, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load known_hosts file %s", knownHostsFile)
		}
		return callback, nil
	}

	if home, err := util.Home(); err == nil {
		defaultKnownHosts := filepath.Join(home, common.DefaultKnownHostsFile)
		if exists, _ := file.PathExists(defaultKnownHosts); exists {
			callback, parseErr := knownhosts.New(defaultKnownHosts)
			if parseErr == nil {
				return callback, nil
			}
			logger.Log.WarnfHost(endpoint, "could not parse known_hosts file %s: %v", defaultKnownHosts, parseErr)
		}
	}

	logger.Log.WarnfHost(endpoint, "no known_hosts file found, host key verification disabled")
	return ssh.InsecureIgnoreHostKey(), nil
}
