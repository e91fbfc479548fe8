//go:build !integration

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthManager_MintAndParse(t *testing.T) {
	am := NewAuthManager("test-secret", false, time.Minute)

	rec := httptest.NewRecorder()
	signed, err := am.Mint(rec)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/attempts", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		claims, err := am.ParseFromRequest(req)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if claims.Role != "admin" {
			t.Fatalf("want admin role, got %s", claims.Role)
		}
	})

	t.Run("session cookie", func(t *testing.T) {
		cookies := rec.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatal("mint must set the session cookie")
		}
		req := httptest.NewRequest(http.MethodGet, "/api/admin/attempts", nil)
		req.AddCookie(cookies[0])
		if _, err := am.ParseFromRequest(req); err != nil {
			t.Fatalf("parse from cookie: %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/attempts", nil)
		if _, err := am.ParseFromRequest(req); err == nil {
			t.Fatal("want error without token")
		}
	})

	t.Run("foreign secret", func(t *testing.T) {
		other := NewAuthManager("different-secret", false, time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/api/admin/attempts", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		if _, err := other.ParseFromRequest(req); err == nil {
			t.Fatal("token signed with another secret must be rejected")
		}
	})
}

func TestAuthManager_RequireAdmin(t *testing.T) {
	am := NewAuthManager("test-secret", false, time.Minute)
	handler := am.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("rejects anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("admits a minted session", func(t *testing.T) {
		mintRec := httptest.NewRecorder()
		signed, err := am.Mint(mintRec)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})
}

func TestCheckPassword(t *testing.T) {
	if CheckPassword("secret", "") {
		t.Fatal("empty configured password must never match")
	}
	if CheckPassword("wrong", "secret") {
		t.Fatal("mismatch must be rejected")
	}
	if !CheckPassword("secret", "secret") {
		t.Fatal("exact match must pass")
	}
}
