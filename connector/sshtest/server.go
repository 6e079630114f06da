// Package sshtest runs an in-process SSH server with an in-memory SFTP
// subsystem for tests.
package sshtest

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	DefaultUsername = "sshuser"
	DefaultPassword = "12345"
)

type Option func(*Server)

// WithCredentials replaces the accepted username and password.
func WithCredentials(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithAuthorizedKey accepts public key authentication with key.
func WithAuthorizedKey(key ssh.PublicKey) Option {
	return func(s *Server) {
		s.authorizedKeys = append(s.authorizedKeys, key)
	}
}

// Server is a loopback SSH server. All connections share one in-memory filesystem.
type Server struct {
	Host    string
	Port    int
	HostKey ssh.PublicKey

	username       string
	password       string
	authorizedKeys []ssh.PublicKey

	config   *ssh.ServerConfig
	handlers sftp.Handlers
	listener net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer starts a server on 127.0.0.1 and stops it when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		username: DefaultUsername,
		password: DefaultPassword,
		handlers: sftp.InMemHandler(),
		conns:    make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("sshtest: generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		t.Fatalf("sshtest: host signer: %v", err)
	}
	s.HostKey = hostSigner.PublicKey()

	s.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == s.username && string(pass) == s.password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
		PublicKeyCallback: func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if c.User() != s.username {
				return nil, fmt.Errorf("unknown user %q", c.User())
			}
			for _, k := range s.authorizedKeys {
				if bytes.Equal(k.Marshal(), key.Marshal()) {
					return nil, nil
				}
			}
			return nil, fmt.Errorf("public key rejected for %q", c.User())
		},
	}
	s.config.AddHostKey(hostSigner)

	s.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("sshtest: listen: %v", err)
	}
	addr := s.listener.Addr().(*net.TCPAddr)
	s.Host = addr.IP.String()
	s.Port = addr.Port

	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Addr returns "host:port".
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Close stops accepting, drops open connections and waits for handlers to exit.
func (s *Server) Close() {
	_ = s.listener.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Mkdir creates a directory in the in-memory filesystem.
func (s *Server) Mkdir(t testing.TB, p string) {
	t.Helper()
	if err := s.handlers.FileCmd.Filecmd(sftp.NewRequest("Mkdir", p)); err != nil {
		t.Fatalf("sshtest: mkdir %s: %v", p, err)
	}
}

// ReadFile returns the content stored at p.
func (s *Server) ReadFile(t testing.TB, p string) []byte {
	t.Helper()
	opener, ok := s.handlers.FilePut.(sftp.OpenFileWriter)
	if !ok {
		t.Fatalf("sshtest: handlers cannot open files")
	}
	f, err := opener.OpenFile(sftp.NewRequest("Open", p))
	if err != nil {
		t.Fatalf("sshtest: open %s: %v", p, err)
	}
	data, err := io.ReadAll(io.NewSectionReader(f, 0, 1<<40))
	if err != nil {
		t.Fatalf("sshtest: read %s: %v", p, err)
	}
	return data
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		nConn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[nConn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, nConn)
				s.mu.Unlock()
				_ = nConn.Close()
			}()
			s.handleConn(nConn)
		}()
	}
}

func (s *Server) handleConn(nConn net.Conn) {
	sconn, chans, reqs, err := ssh.NewServerConn(nConn, s.config)
	if err != nil {
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			return
		}
		go func(in <-chan *ssh.Request) {
			for req := range in {
				ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
				_ = req.Reply(ok, nil)
			}
		}(requests)

		server := sftp.NewRequestServer(channel, s.handlers)
		_ = server.Serve()
		_ = server.Close()
	}
}

// WriteKeyFile writes a new unencrypted ed25519 private key into dir and
// returns its path and public half.
func WriteKeyFile(t testing.TB, dir string) (string, ssh.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("sshtest: generate client key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "sshtest")
	if err != nil {
		t.Fatalf("sshtest: marshal client key: %v", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("sshtest: client public key: %v", err)
	}
	keyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("sshtest: write client key: %v", err)
	}
	return keyPath, sshPub
}

// KnownHostsLine returns a known_hosts entry for this server's address and host key.
func (s *Server) KnownHostsLine() string {
	return knownhosts.Line([]string{s.Addr()}, s.HostKey)
}
