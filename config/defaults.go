package config

import (
	"fmt"
	"strings"

	"github.com/mensylisir/xmpublish/common"
	"github.com/mensylisir/xmpublish/util"
)

const (
	DefaultLogLevel = "info"
)

// SetDefaults fills unset fields of spec in place.
func SetDefaults(spec *PublishSpec) {
	if spec == nil {
		return
	}
	spec.Host = strings.TrimSpace(spec.Host)
	if spec.Port == 0 {
		spec.Port = common.DefaultSSHPort
	}
	if spec.Timeout == 0 {
		spec.Timeout = common.DefaultTimeout
	}
	if spec.Log.Level == "" {
		spec.Log.Level = DefaultLogLevel
	}
}

// Validate checks what the publisher cannot check itself.
// Credentials are left to publisher.Connect so its messages reach the user unchanged.
func Validate(spec *PublishSpec) error {
	if spec == nil {
		return fmt.Errorf("publish spec is nil")
	}
	if util.IsBlank(&spec.Host) {
		return fmt.Errorf("spec.host is required")
	}
	if spec.Port < 1 || spec.Port > 65535 {
		return fmt.Errorf("spec.port %d is out of range 1-65535", spec.Port)
	}
	if spec.Timeout < 0 {
		return fmt.Errorf("spec.timeout must not be negative, got %s", spec.Timeout)
	}
	if _, err := spec.LogLevel(); err != nil {
		return err
	}
	return nil
}
