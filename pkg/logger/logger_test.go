package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLevels(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get()

	log.Debug(ctx, "debug message")
	log.Info(ctx, "info message", String("k", "v"))
	log.Warn(ctx, "warn message", Int("n", 1))
	log.Error(ctx, "error message", Error(errors.New("boom")))
}

func TestNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	named := Named("poll")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(context.Background(), "tick", Float64("interval_ms", 1000))
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, level := range []string{"debug", "info", "warn", "warning", "error", "", "DEBUG"} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("level %q rejected: %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	SetLevel(slog.LevelInfo)
}

func TestFields(t *testing.T) {
	f := String("name", "Annie")
	if f.Key != "name" || f.Value != "Annie" {
		t.Errorf("unexpected field: %+v", f)
	}

	errField := Error(errors.New("nope"))
	if errField.Key != "error" {
		t.Errorf("unexpected error field key: %s", errField.Key)
	}

	anyField := Any("payload", map[string]int{"a": 1})
	if anyField.Key != "payload" {
		t.Errorf("unexpected any field key: %s", anyField.Key)
	}
}
