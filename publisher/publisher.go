// Package publisher uploads files to a remote host over SFTP.
//
// A Publisher is configured through its exported fields, then used as
// Connect, any number of Send calls, and Disconnect or Close. It is not safe
// for concurrent use.
package publisher

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/mensylisir/xmpublish/common"
	"github.com/mensylisir/xmpublish/connector"
	"github.com/mensylisir/xmpublish/file"
	"github.com/mensylisir/xmpublish/logger"
	"github.com/mensylisir/xmpublish/util"
)

type Publisher struct {
	// Host is "host" or "host:port".
	Host string
	// Port is used when Host carries no port. Zero means 22.
	Port     int
	Username string
	Password string
	// ClientKeyPath adds private key authentication after password authentication.
	ClientKeyPath *string
	// WorkingDirectory is entered before every upload. Send requires it.
	WorkingDirectory *string

	Timeout               time.Duration
	KnownHostsFile        string
	InsecureIgnoreHostKey bool

	// OnProgress receives cumulative bytes sent and the total for the current upload.
	OnProgress func(sent, total int64)

	// Dialer creates sessions. Nil means connector.NewDialer().
	Dialer connector.Dialer

	session   connector.Session
	connected bool
}

// New returns a Publisher for host with password credentials.
func New(host, username, password string) *Publisher {
	return &Publisher{Host: host, Username: username, Password: password}
}

// Result describes one upload.
type Result struct {
	FileName         string
	RemotePath       string
	Length           int64
	BytesTransferred int64
	// Success is true when at least Length bytes were reported sent.
	Success bool
}

// Err returns ErrTransferIncomplete for an unsuccessful result and nil otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return errors.Wrapf(ErrTransferIncomplete, "%s: %d of %d bytes sent", r.FileName, r.BytesTransferred, r.Length)
}

func (p *Publisher) Connected() bool {
	return p.connected
}

func (p *Publisher) State() common.SessionState {
	if p.connected {
		return common.StateConnected
	}
	return common.StateDisconnected
}

func (p *Publisher) connectorConfig() connector.Config {
	return connector.Config{
		Address:               p.Host,
		Port:                  p.Port,
		Username:              p.Username,
		Password:              p.Password,
		KeyFile:               util.StringValue(p.ClientKeyPath),
		Timeout:               p.Timeout,
		KnownHostsFile:        p.KnownHostsFile,
		InsecureIgnoreHostKey: p.InsecureIgnoreHostKey,
	}
}

// Connect opens a new session, releasing any previous one first. A failure to
// release the previous session is returned and no new session is opened.
// It returns the session's connected state. Rejected credentials surface as
// an error matching connector.ErrAuthentication.
func (p *Publisher) Connect(ctx context.Context) (bool, error) {
	if p.Username == "" {
		return false, newArgumentError("Username", msgUsernameRequired)
	}
	if p.Password == "" {
		return false, newArgumentError("Password", msgPasswordRequired)
	}

	if err := p.releaseSession(); err != nil {
		return false, errors.Wrapf(err, "failed to release previous session to %s", p.Host)
	}

	dialer := p.Dialer
	if dialer == nil {
		dialer = connector.NewDialer()
	}
	sess, err := dialer.NewSession(p.connectorConfig())
	if err != nil {
		return false, err
	}
	p.session = sess

	if err := sess.Connect(ctx); err != nil {
		logger.Log.ErrorfHost(p.Host, err, "connect as %s failed", p.Username)
		if closeErr := p.releaseSession(); closeErr != nil {
			logger.Log.WarnfHost(p.Host, "release failed session: %v", closeErr)
		}
		return false, err
	}

	p.connected = sess.IsConnected()
	if p.connected {
		logger.Log.InfofHost(p.Host, "connected as %s", p.Username)
	}
	return p.connected, nil
}

// releaseSession closes and forgets the current session, if any.
func (p *Publisher) releaseSession() error {
	p.connected = false
	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	return err
}

// Disconnect closes the session. It does nothing when not connected.
func (p *Publisher) Disconnect() error {
	if !p.connected {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	p.connected = false
	if err != nil {
		return errors.Wrapf(err, "failed to disconnect from %s", p.Host)
	}
	logger.Log.DebugfHost(p.Host, "disconnected")
	return nil
}

// Close releases the session whether or not it is connected. Safe to call repeatedly.
func (p *Publisher) Close() error {
	p.connected = false
	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	if err != nil {
		return errors.Wrapf(err, "failed to close session to %s", p.Host)
	}
	return nil
}

// Send uploads data as fileName inside WorkingDirectory.
//
// Arguments are checked before the connection: a nil stream, an empty stream,
// a missing working directory and an empty fileName each yield an *ArgumentError.
// A short transfer is not an error; check Result.Success or Result.Err.
func (p *Publisher) Send(ctx context.Context, fileName string, data io.Reader) (Result, error) {
	if isNilReader(data) {
		return Result{}, newArgumentError("data", msgNoFile)
	}
	length, ok := streamLength(data)
	if !ok {
		return Result{}, newArgumentError("data", msgUnknownStreamLength)
	}
	if length == 0 {
		return Result{}, newArgumentError("data", msgEmptyFile)
	}
	workDir := util.StringValue(p.WorkingDirectory)
	if workDir == "" {
		return Result{}, newArgumentError("WorkingDirectory", msgNoWorkingDirectory)
	}
	if fileName == "" {
		return Result{}, newArgumentError("fileName", msgNoRemoteName)
	}
	if !p.connected || p.session == nil {
		return Result{}, ErrNotConnected
	}

	if err := p.session.ChangeDirectory(workDir); err != nil {
		return Result{}, errors.Wrapf(err, "failed to enter remote directory %s", workDir)
	}

	result := Result{
		FileName:   fileName,
		RemotePath: path.Join(p.session.WorkingDirectory(), fileName),
		Length:     length,
	}
	log := logger.Log.WithHost(p.Host).WithField(common.FileName, fileName)
	log.Debugf("uploading %d bytes to %s", length, result.RemotePath)

	_, err := p.session.UploadFile(ctx, data, fileName, func(sent int64) {
		result.BytesTransferred = sent
		if p.OnProgress != nil {
			p.OnProgress(sent, length)
		}
	})
	if err != nil {
		return result, errors.Wrapf(err, "failed to upload %s", fileName)
	}

	result.Success = result.BytesTransferred >= length
	if result.Success {
		log.Infof("published %d bytes to %s", result.BytesTransferred, result.RemotePath)
	} else {
		log.Warnf("short transfer to %s: %d of %d bytes", result.RemotePath, result.BytesTransferred, length)
	}
	return result, nil
}

// SendFile uploads the local file at localPath. An empty remoteName uses the
// local base name.
func (p *Publisher) SendFile(ctx context.Context, localPath, remoteName string) (Result, error) {
	f, info, err := file.OpenForUpload(localPath)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	remoteName = util.FirstNonEmpty(remoteName, filepath.Base(f.Name()))
	logger.Log.DebugfFile(remoteName, "local source %s (%d bytes)", f.Name(), info.Size())
	return p.Send(ctx, remoteName, f)
}

func (p *Publisher) String() string {
	return fmt.Sprintf("%s@%s (%s)", p.Username, p.Host, p.State())
}
