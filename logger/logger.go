package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmpublish/common"
	"github.com/mensylisir/xmpublish/file"
)

// Log is the global logger instance of XMLog.
// It starts as a console logger at Info level; InitGlobalLogger replaces it.
var Log *XMLog

func init() {
	Log = newConsoleLog(os.Stderr, logrus.InfoLevel, false)
}

// XMLog wraps *logrus.Logger with host, session and file scoped helpers.
type XMLog struct {
	*logrus.Logger
}

// maxConsoleFieldLength caps field values printed to the console.
const maxConsoleFieldLength = 256

func consoleFormatter(verbose bool) *Formatter {
	display := ShowAboveWarn
	if verbose {
		display = ShowAll
	}
	return &Formatter{
		TimestampFormat:        "15:04:05",
		DisplayLevelName:       display,
		DisableCaller:          true,
		FieldsDisplayWithOrder: common.LogFieldsOrder,
		MaxFieldValueLength:    maxConsoleFieldLength,
	}
}

func newConsoleLog(out io.Writer, level logrus.Level, verbose bool) *XMLog {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(consoleFormatter(verbose))
	logger.SetOutput(out)
	return &XMLog{Logger: logger}
}

// InitGlobalLogger replaces the global Log.
// With an empty outputPath logs go to stderr; otherwise they go to a daily
// rotated file in outputPath and console output is discarded.
func InitGlobalLogger(outputPath string, verbose bool, defaultLevel logrus.Level) error {
	l, err := NewXMLog(outputPath, verbose, defaultLevel)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// NewXMLog creates a new instance of XMLog. See InitGlobalLogger for outputPath semantics.
func NewXMLog(outputPath string, verbose bool, defaultLevel logrus.Level) (*XMLog, error) {
	level := defaultLevel
	if verbose {
		level = logrus.DebugLevel
	}
	if outputPath == "" {
		return newConsoleLog(os.Stderr, level, verbose), nil
	}

	if err := file.CreateDir(outputPath); err != nil {
		return nil, fmt.Errorf("failed to create log output directory %s: %w", outputPath, err)
	}
	logFilePath := filepath.Join(outputPath, common.DefaultLogFileName)
	writer, err := rotatelogs.New(
		logFilePath+".%Y%m%d",
		rotatelogs.WithLinkName(logFilePath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rotatelogs for %s: %w", logFilePath, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetReportCaller(true)

	fileFormatter := &Formatter{
		TimestampFormat:        "2006-01-02 15:04:05.000 MST",
		NoColors:               true,
		DisplayLevelName:       ShowAll,
		FieldsDisplayWithOrder: common.LogFieldsOrder,
		CustomCallerFormatter: func(frame *runtime.Frame) string {
			return fmt.Sprintf("[%s:%d]", filepath.Base(frame.File), frame.Line)
		},
	}
	logger.SetFormatter(fileFormatter)

	logWriters := lfshook.WriterMap{}
	for _, lvl := range logrus.AllLevels {
		if logger.IsLevelEnabled(lvl) {
			logWriters[lvl] = writer
		}
	}
	logger.Hooks.Add(lfshook.NewHook(logWriters, fileFormatter))
	// the hook owns file output
	logger.SetOutput(io.Discard)

	return &XMLog{Logger: logger}, nil
}

// WithHost returns an entry scoped to a remote host.
func (xl *XMLog) WithHost(host string) *logrus.Entry {
	return xl.WithField(common.HostName, host)
}

// WithSession returns an entry scoped to one connection of a host.
func (xl *XMLog) WithSession(host, sessionID string) *logrus.Entry {
	return xl.WithFields(logrus.Fields{
		common.HostName:  host,
		common.SessionID: sessionID,
	})
}

// WithTransfer returns an entry scoped to one upload.
func (xl *XMLog) WithTransfer(host, sessionID, fileName string) *logrus.Entry {
	return xl.WithFields(logrus.Fields{
		common.HostName:  host,
		common.SessionID: sessionID,
		common.FileName:  fileName,
	})
}

func (xl *XMLog) logWithFields(level logrus.Level, fields logrus.Fields, err error, format string, args []interface{}) {
	if err != nil {
		fields["error"] = err
	}
	xl.WithFields(fields).Logf(level, format, args...)
}

// --- Host context ---
func (xl *XMLog) DebugfHost(host string, format string, args ...interface{}) {
	xl.logWithFields(logrus.DebugLevel, logrus.Fields{common.HostName: host}, nil, format, args)
}
func (xl *XMLog) InfofHost(host string, format string, args ...interface{}) {
	xl.logWithFields(logrus.InfoLevel, logrus.Fields{common.HostName: host}, nil, format, args)
}
func (xl *XMLog) WarnfHost(host string, format string, args ...interface{}) {
	xl.logWithFields(logrus.WarnLevel, logrus.Fields{common.HostName: host}, nil, format, args)
}
func (xl *XMLog) ErrorfHost(host string, err error, format string, args ...interface{}) {
	xl.logWithFields(logrus.ErrorLevel, logrus.Fields{common.HostName: host}, err, format, args)
}

// --- File context ---
func (xl *XMLog) DebugfFile(fileName string, format string, args ...interface{}) {
	xl.logWithFields(logrus.DebugLevel, logrus.Fields{common.FileName: fileName}, nil, format, args)
}
func (xl *XMLog) InfofFile(fileName string, format string, args ...interface{}) {
	xl.logWithFields(logrus.InfoLevel, logrus.Fields{common.FileName: fileName}, nil, format, args)
}
func (xl *XMLog) WarnfFile(fileName string, format string, args ...interface{}) {
	xl.logWithFields(logrus.WarnLevel, logrus.Fields{common.FileName: fileName}, nil, format, args)
}
func (xl *XMLog) ErrorfFile(fileName string, err error, format string, args ...interface{}) {
	xl.logWithFields(logrus.ErrorLevel, logrus.Fields{common.FileName: fileName}, err, format, args)
}
