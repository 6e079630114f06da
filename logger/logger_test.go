package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmpublish/common"
)

// testHook captures log entries for assertions.
type testHook struct {
	mu      sync.Mutex
	Entries []*logrus.Entry
}

func (h *testHook) Levels() []logrus.Level { return logrus.AllLevels }
func (h *testHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Entries = append(h.Entries, entry)
	return nil
}
func (h *testHook) LastEntry() *logrus.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Entries) == 0 {
		return nil
	}
	return h.Entries[len(h.Entries)-1]
}

func newCapturedLog(level logrus.Level) (*XMLog, *testHook, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := newConsoleLog(buf, level, true)
	hook := &testHook{}
	l.Hooks.Add(hook)
	return l, hook, buf
}

func TestDefaultGlobalLogger(t *testing.T) {
	require.NotNil(t, Log, "package init must provide a usable logger")
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}

func TestInitGlobalLogger(t *testing.T) {
	originalLog := Log
	defer func() { Log = originalLog }()

	baseTmpDir := t.TempDir()
	blocker := filepath.Join(baseTmpDir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	tests := []struct {
		name             string
		outputPath       string
		verbose          bool
		defaultLevel     logrus.Level
		expectedLogLevel logrus.Level
		expectFile       bool
		wantErr          bool
	}{
		{
			name:             "File output, verbose",
			outputPath:       filepath.Join(baseTmpDir, "file_verbose"),
			verbose:          true,
			defaultLevel:     logrus.InfoLevel,
			expectedLogLevel: logrus.DebugLevel,
			expectFile:       true,
		},
		{
			name:             "File output, warn",
			outputPath:       filepath.Join(baseTmpDir, "file_warn"),
			defaultLevel:     logrus.WarnLevel,
			expectedLogLevel: logrus.WarnLevel,
			expectFile:       true,
		},
		{
			name:             "Console output, verbose",
			verbose:          true,
			defaultLevel:     logrus.InfoLevel,
			expectedLogLevel: logrus.DebugLevel,
		},
		{
			name:             "Console output, error",
			defaultLevel:     logrus.ErrorLevel,
			expectedLogLevel: logrus.ErrorLevel,
		},
		{
			name:         "Output path below a regular file",
			outputPath:   filepath.Join(blocker, "logs"),
			defaultLevel: logrus.InfoLevel,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitGlobalLogger(tt.outputPath, tt.verbose, tt.defaultLevel)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, Log)
			assert.Equal(t, tt.expectedLogLevel, Log.GetLevel())

			_, ok := Log.Formatter.(*Formatter)
			require.True(t, ok, "formatter should be *Formatter")

			if !tt.expectFile {
				return
			}
			Log.Warn("file output check")

			var found bool
			for i := 0; i < 20 && !found; i++ {
				entries, listErr := os.ReadDir(tt.outputPath)
				require.NoError(t, listErr)
				for _, e := range entries {
					if !strings.HasPrefix(e.Name(), common.DefaultLogFileName+".") || e.IsDir() {
						continue
					}
					info, statErr := e.Info()
					if statErr == nil && info.Size() > 0 {
						found = true
					}
				}
				if !found {
					time.Sleep(50 * time.Millisecond)
				}
			}
			assert.True(t, found, "expected a non-empty rotated log file in %s", tt.outputPath)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	l, hook, buf := newCapturedLog(logrus.DebugLevel)

	l.InfofHost("localhost", "connected as %s", "sshuser")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "localhost", entry.Data[common.HostName])
	assert.Equal(t, "connected as sshuser", entry.Message)

	boom := errors.New("boom")
	l.ErrorfFile("small-file.txt", boom, "upload of %d bytes failed", 10)
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "small-file.txt", entry.Data[common.FileName])
	assert.Equal(t, boom, entry.Data["error"])

	l.WithTransfer("localhost", "abc", "small-file.txt").Debug("chunk written")
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "abc", entry.Data[common.SessionID])

	out := buf.String()
	assert.Contains(t, out, "Host:localhost")
	assert.Contains(t, out, "upload of 10 bytes failed")
}

func TestContextHelpersRespectLevel(t *testing.T) {
	l, hook, _ := newCapturedLog(logrus.WarnLevel)

	l.DebugfHost("localhost", "hidden")
	l.InfofFile("a.txt", "hidden")
	assert.Nil(t, hook.LastEntry())

	l.WarnfHost("localhost", "visible")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "visible", hook.LastEntry().Message)
}

func TestConsoleTruncatesLongFields(t *testing.T) {
	l, _, buf := newCapturedLog(logrus.InfoLevel)

	l.WithField(common.RemotePath, strings.Repeat("x", maxConsoleFieldLength+10)).Info("long")
	out := buf.String()
	assert.Contains(t, out, "Remote:"+strings.Repeat("x", maxConsoleFieldLength)+"...]")
	assert.NotContains(t, out, strings.Repeat("x", maxConsoleFieldLength+1))
}
