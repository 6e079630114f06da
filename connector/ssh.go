package connector

import (
	"context"
	"fmt"
	"io"
	"net"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/mensylisir/xmpublish/logger"
	"github.com/mensylisir/xmpublish/util"
)

const copyBufferSize = 32 * 1024

var _ Session = (*sshSession)(nil)

type sshSession struct {
	mu         sync.Mutex
	id         string
	config     Config
	sshclient  *ssh.Client
	sftpclient *sftp.Client
	cwd        string
}

func (s *sshSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sshclient != nil {
		return errors.New("session is already connected")
	}

	endpoint := s.config.Endpoint()
	log := logger.Log.WithSession(endpoint, s.id)

	authMethods, err := AuthMethods(s.config)
	if err != nil {
		return err
	}
	hostKeyCallback, err := HostKeyCallback(s.config)
	if err != nil {
		return errors.Wrap(err, "failed to configure host key verification")
	}

	sshClientConfig := &ssh.ClientConfig{
		User:            s.config.Username,
		Timeout:         s.config.Timeout,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
	}

	d := net.Dialer{Timeout: s.config.Timeout}
	netConn, err := d.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return errors.Wrapf(err, "could not establish connection to %s", endpoint)
	}

	// NewClientConn ignores ClientConfig.Timeout, so bound the handshake here.
	deadline := time.Now().Add(s.config.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = netConn.SetDeadline(deadline)

	ncc, chans, reqs, err := ssh.NewClientConn(netConn, endpoint, sshClientConfig)
	if err != nil {
		_ = netConn.Close()
		return wrapHandshakeError(err, endpoint)
	}
	_ = netConn.SetDeadline(time.Time{})
	client := ssh.NewClient(ncc, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return errors.Wrapf(err, "failed to create SFTP client for %s", endpoint)
	}

	cwd, err := sftpClient.Getwd()
	if err != nil {
		_ = sftpClient.Close()
		_ = client.Close()
		return errors.Wrapf(err, "failed to resolve initial remote directory on %s", endpoint)
	}

	s.sshclient = client
	s.sftpclient = sftpClient
	s.cwd = cwd
	log.Debugf("connected as %s, remote directory %s", s.config.Username, cwd)
	return nil
}

func (s *sshSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sshclient != nil && s.sftpclient != nil
}

func (s *sshSession) WorkingDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

func (s *sshSession) resolve(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(s.cwd, p)
}

func (s *sshSession) ChangeDirectory(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sftpclient == nil {
		return errors.New("sftp client is not initialized or connection is closed")
	}
	if p == "" {
		return errors.New("remote directory must not be empty")
	}

	target := s.resolve(p)
	info, err := s.sftpclient.Stat(target)
	if err != nil {
		return errors.Wrapf(err, "sftp: failed to stat remote directory %s", target)
	}
	if !info.IsDir() {
		return errors.Errorf("sftp: remote path %s is not a directory", target)
	}
	s.cwd = target
	return nil
}

func (s *sshSession) UploadFile(ctx context.Context, r io.Reader, remoteName string, progress ProgressFunc) (int64, error) {
	s.mu.Lock()
	sftpClient := s.sftpclient
	remotePath := s.resolve(remoteName)
	s.mu.Unlock()

	if sftpClient == nil {
		return 0, errors.New("sftp client is not initialized or connection is closed")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dstFile, err := sftpClient.Create(remotePath)
	if err != nil {
		return 0, errors.Wrapf(err, "sftp: failed to create remote file %s", remotePath)
	}

	w := &progressWriter{ctx: ctx, w: dstFile, onProgress: progress}
	// Hide io.WriterTo and io.ReaderFrom so the copy goes through fixed-size chunks.
	buf := make([]byte, copyBufferSize)
	n, copyErr := io.CopyBuffer(w, struct{ io.Reader }{r}, buf)
	closeErr := dstFile.Close()

	if copyErr != nil {
		return n, errors.Wrapf(copyErr, "sftp: failed to stream content to remote %s", remotePath)
	}
	if closeErr != nil {
		return n, errors.Wrapf(closeErr, "sftp: failed to close remote file %s", remotePath)
	}
	logger.Log.WithTransfer(s.config.Endpoint(), s.id, remotePath).Debugf("uploaded %d bytes", n)
	return n, nil
}

func (s *sshSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sshclient == nil && s.sftpclient == nil {
		return nil
	}

	var sftpErr, sshErr error
	if s.sftpclient != nil {
		if err := s.sftpclient.Close(); err != nil {
			sftpErr = fmt.Errorf("sftp close error: %v", err)
		}
		s.sftpclient = nil
	}
	if s.sshclient != nil {
		if err := s.sshclient.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			sshErr = fmt.Errorf("ssh close error: %v", err)
		}
		s.sshclient = nil
	}
	logger.Log.WithSession(s.config.Endpoint(), s.id).Debug("session closed")
	return util.CombineErrors(sftpErr, sshErr)
}

type progressWriter struct {
	ctx        context.Context
	w          io.Writer
	written    int64
	onProgress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.onProgress != nil && n > 0 {
		p.onProgress(p.written)
	}
	return n, err
}
