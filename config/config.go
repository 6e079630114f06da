package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmpublish/publisher"
	"github.com/mensylisir/xmpublish/util"
)

const (
	APIVersion  = "xmpublish.io/v1alpha1"
	KindPublish = "Publish"
)

// PublishConfig is the top-level configuration structure.
type PublishConfig struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   MetadataSpec `yaml:"metadata"`
	Spec       PublishSpec  `yaml:"spec"`
}

// MetadataSpec names the profile.
type MetadataSpec struct {
	Name string `yaml:"name"`
}

// PublishSpec describes one destination.
type PublishSpec struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
	// PasswordEnv names an environment variable consulted when Password is empty.
	PasswordEnv           string        `yaml:"passwordEnv,omitempty"`
	ClientKeyPath         string        `yaml:"clientKeyPath,omitempty"`
	WorkingDirectory      string        `yaml:"workingDirectory,omitempty"`
	Timeout               time.Duration `yaml:"timeout,omitempty"`
	KnownHostsFile        string        `yaml:"knownHostsFile,omitempty"`
	InsecureIgnoreHostKey bool          `yaml:"insecureIgnoreHostKey,omitempty"`
	Log                   LogSpec       `yaml:"log,omitempty"`
}

// LogSpec configures the global logger.
type LogSpec struct {
	// Dir enables daily rotated file output. Empty logs to stderr.
	Dir   string `yaml:"dir,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// ResolvePassword returns Password, falling back to the PasswordEnv variable.
func (s *PublishSpec) ResolvePassword() string {
	if s.Password != "" {
		return s.Password
	}
	if s.PasswordEnv != "" {
		return os.Getenv(s.PasswordEnv)
	}
	return ""
}

// LogLevel parses Log.Level.
func (s *PublishSpec) LogLevel() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(s.Log.Level)
	if err != nil {
		return logrus.InfoLevel, errors.Wrapf(err, "invalid log level %q", s.Log.Level)
	}
	return lvl, nil
}

// Apply copies the spec into p. Empty optional paths leave the pointers nil.
func (s *PublishSpec) Apply(p *publisher.Publisher) {
	p.Host = s.Host
	p.Port = s.Port
	p.Username = s.Username
	p.Password = s.ResolvePassword()
	p.ClientKeyPath = nil
	if s.ClientKeyPath != "" {
		p.ClientKeyPath = util.StringPtr(s.ClientKeyPath)
	}
	p.WorkingDirectory = nil
	if s.WorkingDirectory != "" {
		p.WorkingDirectory = util.StringPtr(s.WorkingDirectory)
	}
	p.Timeout = s.Timeout
	p.KnownHostsFile = s.KnownHostsFile
	p.InsecureIgnoreHostKey = s.InsecureIgnoreHostKey
}
