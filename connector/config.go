package connector

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mensylisir/xmpublish/common"
	"github.com/mensylisir/xmpublish/util"
)

type Config struct {
	Username   string
	Password   string
	Address    string
	Port       int
	PrivateKey string
	KeyFile    string
	Timeout    time.Duration

	KnownHostsFile        string
	InsecureIgnoreHostKey bool
}

// Endpoint returns the "host:port" the session dials.
func (c Config) Endpoint() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

func validateConfig(cfg Config) (Config, error) {
	if len(cfg.Username) == 0 {
		return cfg, errors.New("no username specified for SSH connection")
	}
	if len(cfg.Address) == 0 {
		return cfg, errors.New("no address specified for SSH connection")
	}
	if len(cfg.Password) == 0 && len(cfg.PrivateKey) == 0 && len(cfg.KeyFile) == 0 {
		return cfg, errors.New("must specify at least one of password, private key or keyfile")
	}

	// "host:port" in Address wins over Port.
	if host, port, err := net.SplitHostPort(cfg.Address); err == nil {
		p, convErr := strconv.Atoi(port)
		if convErr != nil || p <= 0 || p > 65535 {
			return cfg, errors.Errorf("invalid port %q in address %q", port, cfg.Address)
		}
		cfg.Address = host
		cfg.Port = p
	} else if strings.HasPrefix(cfg.Address, "[") && strings.HasSuffix(cfg.Address, "]") {
		cfg.Address = strings.TrimSuffix(strings.TrimPrefix(cfg.Address, "["), "]")
	}

	if len(cfg.PrivateKey) == 0 && len(cfg.KeyFile) > 0 {
		keyFile, err := util.ExpandPath(cfg.KeyFile)
		if err != nil {
			return cfg, err
		}
		if !util.FileExists(keyFile) {
			return cfg, errors.Errorf("failed to read keyfile %q: not a regular file", cfg.KeyFile)
		}
		content, err := os.ReadFile(keyFile)
		if err != nil {
			return cfg, errors.Wrapf(err, "failed to read keyfile %q", cfg.KeyFile)
		}
		cfg.PrivateKey = string(content)
	}

	if cfg.Port <= 0 {
		cfg.Port = common.DefaultSSHPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = common.DefaultTimeout
	}
	return cfg, nil
}
