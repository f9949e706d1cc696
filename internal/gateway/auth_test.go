package gateway

import (
	"net/http"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	h := newHarness(t, withAuth(AuthConfig{
		BearerToken: "tok123",
		BasicUser:   "ops",
		BasicPass:   "pass123",
	}))

	do := func(t *testing.T, configure func(*http.Request)) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, h.server.URL+"/status", nil)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		if configure != nil {
			configure(req)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("missing header", func(t *testing.T) {
		if resp := do(t, nil); resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("valid bearer", func(t *testing.T) {
		resp := do(t, func(r *http.Request) { r.Header.Set("Authorization", "Bearer tok123") })
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("invalid bearer", func(t *testing.T) {
		resp := do(t, func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") })
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("valid basic", func(t *testing.T) {
		resp := do(t, func(r *http.Request) { r.SetBasicAuth("ops", "pass123") })
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("invalid basic", func(t *testing.T) {
		resp := do(t, func(r *http.Request) { r.SetBasicAuth("ops", "wrong") })
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})
}

func TestStatusNotMountedWithoutAuth(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.server.URL + "/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebhookNotBehindAuth(t *testing.T) {
	h := newHarness(t, withAuth(AuthConfig{BearerToken: "tok123"}))

	resp, err := http.Get(h.server.URL + "/webhook/telegram")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 without credentials", resp.StatusCode)
	}
}
