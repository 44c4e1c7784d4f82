package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		DebugLevel: zapcore.DebugLevel,
		"bogus":    defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_AllFormats(t *testing.T) {
	for _, format := range []string{FormatConsole, FormatJSON, FormatLogfmt, "unknown"} {
		l := New(InfoLevel, format)
		if l == nil || l.SugaredLogger == nil {
			t.Fatalf("New(%q) returned nil logger", format)
		}
		if l.Named("poller") == nil {
			t.Fatalf("Named returned nil for format %q", format)
		}
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Infow("discarded", "k", "v")
}
