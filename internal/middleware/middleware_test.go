package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"medication-adherence/internal/platform/logger"
	"medication-adherence/internal/ports/auth"
)

var stubVerifier = auth.VerifierFunc(func(_ context.Context, token string) (auth.Claims, error) {
	switch token {
	case "ok":
		return auth.Claims{UserID: " u-token "}, nil
	case "blank":
		return auth.Claims{UserID: "  "}, nil
	}
	return auth.Claims{}, errors.New("bad token")
})

func whoAmI(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte(uid))
}

func TestAuthContext(t *testing.T) {
	cases := []struct {
		name     string
		verifier auth.AuthVerifier
		headers  map[string]string
		wantCode int
		wantBody string
	}{
		{"dev header", nil, map[string]string{DebugUserHeader: " u-dev "}, 200, "u-dev"},
		{"dev without header", nil, nil, 401, ""},
		{"dev blank header", nil, map[string]string{DebugUserHeader: "   "}, 401, ""},
		{"bearer ok", stubVerifier, map[string]string{"Authorization": "Bearer ok"}, 200, "u-token"},
		{"bearer lowercase", stubVerifier, map[string]string{"Authorization": "bearer ok"}, 200, "u-token"},
		{"bearer invalid", stubVerifier, map[string]string{"Authorization": "Bearer nope"}, 401, ""},
		{"bearer without subject", stubVerifier, map[string]string{"Authorization": "Bearer blank"}, 401, ""},
		{"debug header ignored with verifier", stubVerifier, map[string]string{DebugUserHeader: "u-dev"}, 401, ""},
		{"malformed header", stubVerifier, map[string]string{"Authorization": "Token ok"}, 401, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := AuthContext(tc.verifier, nil)(http.HandlerFunc(whoAmI))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if rr.Body.String() != tc.wantBody {
				t.Fatalf("expected body %q, got %q", tc.wantBody, rr.Body.String())
			}
		})
	}
}

func TestAuthContext_LogsRejectedToken(t *testing.T) {
	rec := &recordingLogger{}
	h := AuthContext(stubVerifier, rec)(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodGet, "/medications", nil)
	req.Header.Set("Authorization", "Bearer secret-nope")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(rec.entries) != 1 || rec.entries[0] != "warn" {
		t.Fatalf("expected one warn entry, got %v", rec.entries)
	}
	f := rec.fields[0]
	if f["path"] != "/medications" || f["error"] != "bad token" {
		t.Fatalf("unexpected fields %+v", f)
	}
	for _, v := range f {
		if s, ok := v.(string); ok && strings.Contains(s, "secret-nope") {
			t.Fatalf("token leaked into log: %+v", f)
		}
	}
}

func TestAuthContext_ValidTokenNotLogged(t *testing.T) {
	rec := &recordingLogger{}
	h := AuthContext(stubVerifier, rec)(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer ok")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(rec.entries) != 0 {
		t.Fatalf("expected no log entries, got %v", rec.entries)
	}
}

func TestUserID(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Fatalf("expected no user on empty context")
	}
	ctx := WithClaims(context.Background(), auth.Claims{UserID: " u1 ", Email: "a@b.c"})
	uid, ok := UserID(ctx)
	if !ok || uid != "u1" {
		t.Fatalf("unexpected user %q %v", uid, ok)
	}
	if c, _ := GetClaims(ctx); c.Email != "a@b.c" || c.UserID != "u1" {
		t.Fatalf("unexpected claims %+v", c)
	}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
	fields  []map[string]any
}

func (l *recordingLogger) With(map[string]any) logger.Logger { return l }
func (l *recordingLogger) Debug(_ string, f map[string]any)  { l.add("debug", f) }
func (l *recordingLogger) Info(_ string, f map[string]any)   { l.add("info", f) }
func (l *recordingLogger) Warn(_ string, f map[string]any)   { l.add("warn", f) }
func (l *recordingLogger) Error(_ string, f map[string]any)  { l.add("error", f) }

func (l *recordingLogger) add(level string, f map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level)
	l.fields = append(l.fields, f)
}

func TestRequestLog_LevelByStatus(t *testing.T) {
	rec := &recordingLogger{}
	mw := RequestLog(rec)

	for _, code := range []int{200, 404, 500} {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	}

	want := []string{"info", "warn", "error"}
	if len(rec.entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(rec.entries))
	}
	for i, lvl := range want {
		if rec.entries[i] != lvl {
			t.Errorf("entry %d: expected %s, got %s", i, lvl, rec.entries[i])
		}
	}
	if rec.fields[1]["status"] != 404 || rec.fields[1]["path"] != "/x" {
		t.Errorf("unexpected fields %+v", rec.fields[1])
	}
}

func TestRequestLog_ImplicitOK(t *testing.T) {
	rec := &recordingLogger{}
	h := RequestLog(rec)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hi"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.fields[0]["status"] != 200 || rec.fields[0]["bytes"] != 2 {
		t.Fatalf("unexpected fields %+v", rec.fields[0])
	}
}

func TestRequestLog_UserIDAfterAuthContext(t *testing.T) {
	rec := &recordingLogger{}
	h := AuthContext(nil, nil)(RequestLog(rec)(http.HandlerFunc(whoAmI)))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(DebugUserHeader, "u-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(rec.fields) != 1 || rec.fields[0]["user_id"] != "u-7" {
		t.Fatalf("expected user_id in access log, got %+v", rec.fields)
	}
}
