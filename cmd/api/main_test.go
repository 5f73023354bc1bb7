package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	jwtauth "medication-adherence/internal/adapters/auth/jwt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "cli-secret")

	out, err := run(t, "token", "--user", "u-42")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	v, _ := jwtauth.NewVerifier(jwtauth.Config{Secret: []byte("cli-secret"), Issuer: "medtrack"})
	claims, err := v.Verify(context.Background(), strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != "u-42" {
		t.Fatalf("unexpected subject %q", claims.UserID)
	}
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := run(t, "token", "--user", "u-42"); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestSweepCommand_MemoryMode(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("AUTH_MODE", "dev")

	out, err := run(t, "sweep")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "Marked 0 dose(s)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMigrateCommand_RequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("AUTH_MODE", "dev")
	if _, err := run(t, "migrate"); err == nil || !strings.Contains(err.Error(), "DB_DSN") {
		t.Fatalf("expected DB_DSN error, got %v", err)
	}
}
