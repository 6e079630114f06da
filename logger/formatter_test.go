package logger

import (
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(level logrus.Level, msg string, data logrus.Fields) *logrus.Entry {
	return &logrus.Entry{
		Logger:  logrus.New(),
		Data:    data,
		Time:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Level:   level,
		Message: msg,
	}
}

func TestFormatterOrderedFields(t *testing.T) {
	f := &Formatter{
		TimestampFormat:        "15:04:05",
		NoColors:               true,
		DisplayLevelName:       ShowAll,
		FieldsDisplayWithOrder: []string{"Host", "File"},
	}
	out, err := f.Format(newEntry(logrus.InfoLevel, "uploaded", logrus.Fields{
		"zeta": 1,
		"File": "small-file.txt",
		"Host": "localhost",
		"alpha": "a",
	}))
	require.NoError(t, err)
	assert.Equal(t, "10:30:00 [INFO] [Host:localhost | File:small-file.txt | alpha:a | zeta:1] uploaded\n", string(out))
}

func TestFormatterLevelDisplay(t *testing.T) {
	tests := []struct {
		name  string
		mode  LevelNameDisplayMode
		level logrus.Level
		want  string
	}{
		{"show all info", ShowAll, logrus.InfoLevel, "[INFO] msg\n"},
		{"above warn hides info", ShowAboveWarn, logrus.InfoLevel, "msg\n"},
		{"above warn shows warning", ShowAboveWarn, logrus.WarnLevel, "[WARN] msg\n"},
		{"above warn shows error", ShowAboveWarn, logrus.ErrorLevel, "[ERRO] msg\n"},
		{"hide all", HideAll, logrus.ErrorLevel, "msg\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Formatter{NoColors: true, DisableTimestamp: true, DisplayLevelName: tt.mode}
			out, err := f.Format(newEntry(tt.level, "msg", logrus.Fields{}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestFormatterTruncatesValues(t *testing.T) {
	f := &Formatter{NoColors: true, DisableTimestamp: true, DisplayLevelName: HideAll, MaxFieldValueLength: 4}
	out, err := f.Format(newEntry(logrus.InfoLevel, "m", logrus.Fields{"k": "abcdefgh"}))
	require.NoError(t, err)
	assert.Equal(t, "[k:abcd...] m\n", string(out))
}

func TestFormatterCaller(t *testing.T) {
	f := &Formatter{NoColors: true, DisableTimestamp: true, DisplayLevelName: HideAll}
	entry := newEntry(logrus.InfoLevel, "m", logrus.Fields{})
	entry.Logger.SetReportCaller(true)
	entry.Caller = &runtime.Frame{File: "/src/publisher/publisher.go", Line: 42, Function: "github.com/x/publisher.(*Publisher).Send"}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "m (publisher.go:42 Send)\n", string(out))

	f.CustomCallerFormatter = func(frame *runtime.Frame) string { return "<custom>" }
	out, err = f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "m <custom>\n", string(out))
}
