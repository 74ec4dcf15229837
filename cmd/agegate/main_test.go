package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidahmann/agegate/internal/config"
)

type fakeRunner struct {
	err error
	ran bool
}

func (f *fakeRunner) Run(context.Context) error {
	f.ran = true
	return f.err
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agegate.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
listen_addr: ":9999"
discord:
  token: "test-token"
min_account_age_days: 7
review_channel_id: "REPLACE_WITH_YOUR_REVIEW_CHANNEL_ID"
verified_role_id: "<@&5678>"
logging:
  level: error
`

func TestRunLoadsConfigFile(t *testing.T) {
	path := writeConfig(t, validConfig)
	fake := &fakeRunner{}

	factory := func(cfg config.Config, _ *slog.Logger) (runner, error) {
		if cfg.ListenAddr != ":9999" {
			t.Fatalf("expected addr from config, got %s", cfg.ListenAddr)
		}
		if cfg.MinAccountAgeDays != 7 {
			t.Fatalf("expected min age 7, got %d", cfg.MinAccountAgeDays)
		}
		return fake, nil
	}
	getenv := func(key string) string {
		if key == "AGEGATE_CONFIG_PATH" {
			return path
		}
		return ""
	}

	if err := run(context.Background(), nil, getenv, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fake.ran {
		t.Fatalf("expected service to run")
	}
}

func TestRunConfigFlagWins(t *testing.T) {
	path := writeConfig(t, validConfig)
	factory := func(config.Config, *slog.Logger) (runner, error) { return &fakeRunner{}, nil }
	getenv := func(key string) string {
		if key == "AGEGATE_CONFIG_PATH" {
			return "/does/not/exist.yaml"
		}
		return ""
	}

	if err := run(context.Background(), []string{"-config", path}, getenv, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	path := writeConfig(t, "discord:\n  token: \"\"\n")
	factory := func(config.Config, *slog.Logger) (runner, error) {
		t.Fatalf("factory should not be called")
		return nil, nil
	}

	if err := run(context.Background(), []string{"-config", path}, func(string) string { return "" }, factory); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunPropagatesErrors(t *testing.T) {
	path := writeConfig(t, validConfig)
	getenv := func(string) string { return "" }

	boom := errors.New("boom")
	factory := func(config.Config, *slog.Logger) (runner, error) { return nil, boom }
	if err := run(context.Background(), []string{"-config", path}, getenv, factory); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}

	factory = func(config.Config, *slog.Logger) (runner, error) { return &fakeRunner{err: boom}, nil }
	if err := run(context.Background(), []string{"-config", path}, getenv, factory); !errors.Is(err, boom) {
		t.Fatalf("expected run error, got %v", err)
	}
}

func TestRunBadFlag(t *testing.T) {
	factory := func(config.Config, *slog.Logger) (runner, error) { return &fakeRunner{}, nil }
	if err := run(context.Background(), []string{"-nope"}, func(string) string { return "" }, factory); err == nil {
		t.Fatalf("expected flag error")
	}
}

func TestNewServiceWiresOpsAPI(t *testing.T) {
	cfg := config.Config{
		ListenAddr:      "127.0.0.1:0",
		Discord:         config.DiscordConfig{Token: "test-token"},
		ReviewChannelID: "1",
		VerifiedRoleID:  "2",
	}
	r, err := newService(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc := r.(*service)
	if svc.server == nil || svc.server.Handler == nil {
		t.Fatalf("expected ops server")
	}

	cfg.ListenAddr = ""
	r, err = newService(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if r.(*service).server != nil {
		t.Fatalf("expected no ops server without listen_addr")
	}
}

func TestMainError(t *testing.T) {
	oldRun := runFn
	oldFatal := fatalf
	defer func() {
		runFn = oldRun
		fatalf = oldFatal
	}()

	runFn = func(context.Context, []string, envFn, serviceFactory) error {
		return errors.New("boom")
	}

	called := false
	fatalf = func(string, ...any) {
		called = true
	}

	main()
	if !called {
		t.Fatalf("expected fatal call")
	}
}
