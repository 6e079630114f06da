package publisher

import (
	"context"
	"io"
	"path"

	"github.com/pkg/errors"

	"github.com/mensylisir/xmpublish/connector"
)

type fakeDialer struct {
	sessions []*fakeSession
	configs  []connector.Config
	next     func() *fakeSession
	err      error
}

func (d *fakeDialer) NewSession(cfg connector.Config) (connector.Session, error) {
	d.configs = append(d.configs, cfg)
	if d.err != nil {
		return nil, d.err
	}
	s := &fakeSession{cwd: "/home/sshuser", files: map[string][]byte{}}
	if d.next != nil {
		s = d.next()
	}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDialer) last() *fakeSession {
	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

type fakeSession struct {
	connectErr   error
	notConnected bool
	chdirErr     error
	uploadErr    error
	closeErr     error
	// shortBy is subtracted from the final progress report.
	shortBy int64
	chunk   int

	connected  bool
	cwd        string
	chdirs     []string
	files      map[string][]byte
	closeCalls int
}

func (s *fakeSession) Connect(ctx context.Context) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = !s.notConnected
	return nil
}

func (s *fakeSession) IsConnected() bool { return s.connected }

func (s *fakeSession) ChangeDirectory(p string) error {
	s.chdirs = append(s.chdirs, p)
	if s.chdirErr != nil {
		return s.chdirErr
	}
	if path.IsAbs(p) {
		s.cwd = path.Clean(p)
	} else {
		s.cwd = path.Join(s.cwd, p)
	}
	return nil
}

func (s *fakeSession) WorkingDirectory() string { return s.cwd }

func (s *fakeSession) UploadFile(ctx context.Context, r io.Reader, remoteName string, progress connector.ProgressFunc) (int64, error) {
	if !s.connected {
		return 0, errors.New("fake: not connected")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if s.uploadErr != nil {
		return 0, s.uploadErr
	}
	chunk := s.chunk
	if chunk <= 0 {
		chunk = len(data)
	}
	var sent int64
	for sent < int64(len(data)) {
		sent += int64(chunk)
		if sent > int64(len(data)) {
			sent = int64(len(data))
		}
		reported := sent
		if sent == int64(len(data)) {
			reported -= s.shortBy
		}
		if progress != nil {
			progress(reported)
		}
	}
	s.files[path.Join(s.cwd, remoteName)] = data
	return int64(len(data)) - s.shortBy, nil
}

func (s *fakeSession) Close() error {
	s.closeCalls++
	s.connected = false
	return s.closeErr
}
