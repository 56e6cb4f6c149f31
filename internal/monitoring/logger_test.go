package monitoring

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestUseZap_Levels(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	core, logs := observer.New(zapcore.DebugLevel)
	UseZap(zap.New(core))

	Logf("dropped %d rows", 3)
	Logf("WARNING: no strata for %s", "SB25rAll")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].Message != "dropped 3 rows" {
		t.Errorf("unexpected first entry: %v %q", entries[0].Level, entries[0].Message)
	}
	if entries[1].Level != zapcore.WarnLevel || entries[1].Message != "no strata for SB25rAll" {
		t.Errorf("unexpected second entry: %v %q", entries[1].Level, entries[1].Message)
	}
}

func TestUseZap_Nil(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	UseZap(nil)
	Logf("should not panic")
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(true)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose logger should enable debug level")
	}
}
