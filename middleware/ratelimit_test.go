package middleware

import (
	"testing"
)

func TestRateLimiterAllowsBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(2) // burst of 1

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request must pass")
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("request over burst must be rejected")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(2)

	if !rl.allow("1.1.1.1") {
		t.Fatal("first client must pass")
	}
	if !rl.allow("2.2.2.2") {
		t.Fatal("second client must not share the first client's bucket")
	}
}

func TestRateLimiterMinimumConfig(t *testing.T) {
	rl := NewRateLimiter(0)
	if !rl.allow("1.2.3.4") {
		t.Fatal("limiter with clamped config must still admit one request")
	}
}
