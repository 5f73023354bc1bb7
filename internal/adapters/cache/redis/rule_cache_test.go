package redis

import (
	"context"
	"testing"
)

func TestConnect_BadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not a url"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRuleCache_Defaults(t *testing.T) {
	c := NewRuleCache(nil, nil, Options{})
	if c.ttl != DefaultTTL || c.prefix != DefaultPrefix || c.log == nil {
		t.Fatalf("defaults not applied: ttl=%v prefix=%q", c.ttl, c.prefix)
	}
}
