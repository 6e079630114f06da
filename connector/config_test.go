package connector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tempDir := t.TempDir()
	keyFilePath := filepath.Join(tempDir, "test_key.pem")
	keyContent := "test_private_key_content"
	require.NoError(t, os.WriteFile(keyFilePath, []byte(keyContent), 0600))

	tests := []struct {
		name        string
		inputCfg    Config
		expectedCfg Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid with password",
			inputCfg:    Config{Username: "sshuser", Address: "localhost", Password: "12345"},
			expectedCfg: Config{Username: "sshuser", Address: "localhost", Password: "12345", Port: 22, Timeout: 30 * time.Second},
		},
		{
			name:        "valid with key file",
			inputCfg:    Config{Username: "sshuser", Address: "localhost", KeyFile: keyFilePath},
			expectedCfg: Config{Username: "sshuser", Address: "localhost", KeyFile: keyFilePath, PrivateKey: keyContent, Port: 22, Timeout: 30 * time.Second},
		},
		{
			name:        "inline key wins over key file",
			inputCfg:    Config{Username: "sshuser", Address: "localhost", PrivateKey: "inline", KeyFile: "/does/not/exist"},
			expectedCfg: Config{Username: "sshuser", Address: "localhost", PrivateKey: "inline", KeyFile: "/does/not/exist", Port: 22, Timeout: 30 * time.Second},
		},
		{
			name:        "port and timeout kept",
			inputCfg:    Config{Username: "sshuser", Address: "10.0.0.5", Password: "12345", Port: 2222, Timeout: 5 * time.Second},
			expectedCfg: Config{Username: "sshuser", Address: "10.0.0.5", Password: "12345", Port: 2222, Timeout: 5 * time.Second},
		},
		{
			name:        "port taken from address",
			inputCfg:    Config{Username: "sshuser", Address: "localhost:2022", Password: "12345", Port: 22},
			expectedCfg: Config{Username: "sshuser", Address: "localhost", Password: "12345", Port: 2022, Timeout: 30 * time.Second},
		},
		{
			name:        "bracketed ipv6 address with port",
			inputCfg:    Config{Username: "sshuser", Address: "[::1]:2022", Password: "12345"},
			expectedCfg: Config{Username: "sshuser", Address: "::1", Password: "12345", Port: 2022, Timeout: 30 * time.Second},
		},
		{
			name:        "invalid port in address",
			inputCfg:    Config{Username: "sshuser", Address: "localhost:ssh", Password: "12345"},
			expectError: true,
			errorMsg:    "invalid port",
		},
		{
			name:        "missing username",
			inputCfg:    Config{Address: "localhost", Password: "12345"},
			expectError: true,
			errorMsg:    "no username specified",
		},
		{
			name:        "missing address",
			inputCfg:    Config{Username: "sshuser", Password: "12345"},
			expectError: true,
			errorMsg:    "no address specified",
		},
		{
			name:        "missing auth method",
			inputCfg:    Config{Username: "sshuser", Address: "localhost"},
			expectError: true,
			errorMsg:    "must specify at least one of",
		},
		{
			name:        "key file is a directory",
			inputCfg:    Config{Username: "sshuser", Address: "localhost", KeyFile: tempDir},
			expectError: true,
			errorMsg:    "not a regular file",
		},
		{
			name:        "bracketed IPv6 address without port",
			inputCfg:    Config{Username: "sshuser", Address: "[::1]", Password: "12345"},
			expectedCfg: Config{Username: "sshuser", Address: "::1", Password: "12345", Port: 22, Timeout: 30 * time.Second},
		},
		{
			name:        "unreadable key file",
			inputCfg:    Config{Username: "sshuser", Address: "localhost", KeyFile: filepath.Join(tempDir, "missing")},
			expectError: true,
			errorMsg:    "failed to read keyfile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := validateConfig(tt.inputCfg)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCfg, cfg)
		})
	}
}

func TestConfigEndpoint(t *testing.T) {
	assert.Equal(t, "localhost:22", Config{Address: "localhost", Port: 22}.Endpoint())
	assert.Equal(t, "[::1]:2022", Config{Address: "::1", Port: 2022}.Endpoint())

	cfg, err := validateConfig(Config{Username: "sshuser", Address: "[::1]", Password: "12345"})
	require.NoError(t, err)
	assert.Equal(t, "[::1]:22", cfg.Endpoint())
}
