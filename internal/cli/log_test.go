package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("loaded history") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("cache miss") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("cache miss") }, true},
		{"warn at info", log.InfoLevel, func(l *log.Logger) { l.Warn("cache disabled") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v (%q)", got, tt.wantLog, buf.String())
			}
		})
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("rendered output")

	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("entry %q does not start with a 15:04:05.00 timestamp", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Loaded 6 commits")

	out := buf.String()
	if !strings.Contains(out, "Loaded 6 commits (") || !strings.Contains(out, "s)") {
		t.Errorf("progress line %q lacks message or duration", out)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Fatal("loggerFromContext did not return the attached logger")
	}
	loggerFromContext(ctx).Info("serving history")
	if !strings.Contains(buf.String(), "serving history") {
		t.Errorf("attached logger wrote %q", buf.String())
	}
}
