package logger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("registry")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	l.Info("default logger works")
}

func TestNew(t *testing.T) {
	cfg := &Config{Level: "debug", Format: "json", Output: "stdout"}
	l := New(cfg, "registry")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	l.Debug("json logger works")
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "nonsense", Format: "json", Output: "stdout"}
	l := New(cfg, "registry")
	if l == nil {
		t.Fatal("expected non-nil logger even with invalid level")
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("registry").WithComponent("store")
	if l == nil {
		t.Fatal("expected non-nil component logger")
	}
	l.Info("component logger works")
}

func TestWithContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextKey("request_id"), "req-1")
	l := NewDefault("registry").WithContext(ctx)
	l.Info("context logger works")
}

func TestWithFields(t *testing.T) {
	l := NewDefault("registry").WithFields(map[string]interface{}{"service_name": "billing"})
	l.Info("fields logger works")
}

func TestWithError(t *testing.T) {
	l := NewDefault("registry").WithError(errors.New("boom"))
	l.Warn("error logger works")
}

func TestGlobalLogger(t *testing.T) {
	old := globalLogger
	defer SetGlobalLogger(old)

	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected lazy default global logger")
	}

	custom := NewDefault("custom")
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Error("expected SetGlobalLogger to install the instance")
	}
	Info("package-level logging works")
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format console, got %s", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected default output stdout, got %s", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	bad := Config{Level: "loud", Format: "json"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}

	badFmt := Config{Level: "info", Format: "xml"}
	if err := badFmt.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestFields(t *testing.T) {
	m := Fields("operation", "register", "service_id", "inst-1")
	if m["operation"] != "register" {
		t.Errorf("expected operation field, got %v", m)
	}
	if m["service_id"] != "inst-1" {
		t.Errorf("expected service_id field, got %v", m)
	}

	odd := Fields("only-key")
	if len(odd) != 0 {
		t.Errorf("expected odd kv list to be dropped, got %v", odd)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("register", errors.New("boom"))
	if m[FieldOperation] != "register" || m[FieldError] != "boom" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("discover", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}

func TestIdentityFields(t *testing.T) {
	m := IdentityFields("billing", "1.0", "inst-1")
	if m[FieldServiceName] != "billing" || m[FieldVersion] != "1.0" || m[FieldServiceID] != "inst-1" {
		t.Errorf("unexpected identity fields %v", m)
	}
}

func TestMergeWithError(t *testing.T) {
	m := MergeWithError(nil, errors.New("boom"))
	if m[FieldError] != "boom" {
		t.Errorf("expected error merged into nil map, got %v", m)
	}
}
