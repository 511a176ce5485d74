// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("GATE_SECRET", "test-gate-secret")
	t.Setenv("PATTERN_HASH", "$2a$04$placeholder")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("RECOMPUTE_SCHEDULE", "")
	t.Setenv("UNLOCK_PER_MINUTE", "")
	t.Setenv("IFTTT_BASE_URL", "")
	t.Setenv("TRUSTED_PROXIES", "")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TIMEZONE", "America/Chicago")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.Location == nil || cfg.Location.String() != "America/Chicago" {
		t.Errorf("expected America/Chicago location, got %v", cfg.Location)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %q", cfg.DatabaseType)
	}
	if cfg.RecomputeSchedule != DefaultRecomputeSchedule {
		t.Errorf("expected default schedule, got %q", cfg.RecomputeSchedule)
	}
	if cfg.IFTTTBaseURL != DefaultIFTTTBaseURL {
		t.Errorf("expected default IFTTT URL, got %q", cfg.IFTTTBaseURL)
	}
	if cfg.UnlockPerMinute != DefaultUnlockPerMinute {
		t.Errorf("expected default unlock rate, got %d", cfg.UnlockPerMinute)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "postgres://x", "-t", "postgres", "-gate-secret", "s1", "-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" || cfg.GateSecret != "s1" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATE_SECRET", "")

	if _, err := ParseFlags([]string{"-env-file", ""}); err == nil {
		t.Error("expected error without GATE_SECRET")
	}

	setRequiredEnv(t)
	t.Setenv("PATTERN_HASH", "")
	if _, err := ParseFlags([]string{"-env-file", ""}); err == nil {
		t.Error("expected error without PATTERN_HASH")
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	setRequiredEnv(t)

	if _, err := ParseFlags([]string{"-t", "mysql", "-env-file", ""}); err == nil {
		t.Error("expected error for unsupported database type")
	}
	if _, err := ParseFlags([]string{"-tz", "Mars/Olympus", "-env-file", ""}); err == nil {
		t.Error("expected error for unknown time zone")
	}
	if _, err := ParseFlags([]string{"-trusted-proxies", "10.0.0.0/33", "-env-file", ""}); err == nil {
		t.Error("expected error for bad trusted proxy")
	}
}

func TestParseFlags_TrustedProxies(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.TrustedProxies) != 2 {
		t.Fatalf("expected 2 trusted proxies, got %v", cfg.TrustedProxies)
	}
	if cfg.TrustedProxies[0].String() != "10.0.0.0/8" || cfg.TrustedProxies[1].String() != "127.0.0.1/32" {
		t.Errorf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}

	// The flag wins over the environment.
	cfg, err = ParseFlags([]string{"-trusted-proxies", "::1", "-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0].String() != "::1/128" {
		t.Errorf("expected ::1/128 from the flag, got %v", cfg.TrustedProxies)
	}
}

func TestParseTrustedProxies(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"192.168.1.7", []string{"192.168.1.7/32"}, false},
		{"10.1.2.3/8", []string{"10.0.0.0/8"}, false},
		{"::ffff:10.0.0.1", []string{"10.0.0.1/32"}, false},
		{"fd00::/8, 172.16.0.0/12", []string{"fd00::/8", "172.16.0.0/12"}, false},
		{"not-an-ip", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseTrustedProxies(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTrustedProxies(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseTrustedProxies(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i].String() != tt.want[i] {
				t.Errorf("ParseTrustedProxies(%q)[%d] = %s, want %s", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseFlags_DotEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IFTTT_KEY", "")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("IFTTT_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// godotenv never overrides variables that are already set, so clear it first.
	os.Unsetenv("IFTTT_KEY")

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IFTTTKey != "from-dotenv" {
		t.Errorf("expected key from .env, got %q", cfg.IFTTTKey)
	}
	os.Unsetenv("IFTTT_KEY")
}
