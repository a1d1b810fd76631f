package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`app:
  name: rncflow-test
  timezone: America/Sao_Paulo
database:
  driver: sqlite
  dsn: %s
auth:
  jwt_secret: test-secret
storage:
  root: %s
`, filepath.Join(dir, "rncflow.sqlite"), filepath.Join(dir, "uploads"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCLISeedAndSweep(t *testing.T) {
	cfg := writeTestConfig(t)

	if out := runCLI(t, "init-db", "--config", cfg); !strings.Contains(out, "database schema initialized") {
		t.Fatalf("init-db output = %q", out)
	}

	if out := runCLI(t, "directory", "supplier", "add", "--config", cfg, "--name", "Acme", "--cnpj", "00.000.000/0001-00"); !strings.Contains(out, "created supplier 1: Acme") {
		t.Fatalf("supplier add output = %q", out)
	}

	out := runCLI(t, "directory", "user", "add", "--config", cfg, "--email", "Qualidade@Example.com", "--perm", "admin.all")
	if !strings.Contains(out, "created user 1: qualidade@example.com [admin.all]") {
		t.Fatalf("user add output = %q", out)
	}

	token := strings.TrimSpace(runCLI(t, "token", "issue", "--config", cfg, "--user", "1"))
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token = %q, want a JWT", token)
	}

	types := runCLI(t, "notifications", "sync-types", "--config", cfg)
	if got := len(strings.Split(strings.TrimSpace(types), "\n")); got != 3 {
		t.Fatalf("sync-types listed %d types, want 3:\n%s", got, types)
	}

	var report struct {
		Rules    int `json:"rules"`
		Created  int `json:"created"`
		Failures int `json:"failures"`
	}
	raw := runCLI(t, "notifications", "sweep", "--config", cfg)
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		t.Fatalf("decode sweep report: %v\n%s", err, raw)
	}
	if report.Rules != 3 || report.Created != 0 || report.Failures != 0 {
		t.Fatalf("report = %+v, want 3 rules and nothing created", report)
	}
}

func TestTokenIssueFlags(t *testing.T) {
	if err := tokenIssueCmd.ParseFlags([]string{"--user", "7", "--ttl", "2h"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	userID, _ := tokenIssueCmd.Flags().GetUint64("user")
	if userID != 7 {
		t.Fatalf("user = %d, want 7", userID)
	}

	ttl, _ := tokenIssueCmd.Flags().GetDuration("ttl")
	if ttl.String() != "2h0m0s" {
		t.Fatalf("ttl = %s, want 2h0m0s", ttl)
	}
}
