package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func roleEcho(got *Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = RoleFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	keys := Keys{
		Public: []string{"pub_key"},
		Admin:  []string{"adm_key"},
	}
	var role Role

	// Admin key -> 200
	reqAdm := httptest.NewRequest(http.MethodPost, "/api/sites", nil)
	reqAdm.Header.Set("X-API-Key", "adm_key")
	recAdm := httptest.NewRecorder()
	RequireAdmin(keys)(roleEcho(&role)).ServeHTTP(recAdm, reqAdm)
	if recAdm.Code != http.StatusOK || role != RoleAdmin {
		t.Fatalf("admin key should pass; got %d role %d", recAdm.Code, role)
	}

	// Public key -> 403
	reqPub := httptest.NewRequest(http.MethodPost, "/api/sites", nil)
	reqPub.Header.Set("Authorization", "Bearer pub_key")
	recPub := httptest.NewRecorder()
	RequireAdmin(keys)(roleEcho(&role)).ServeHTTP(recPub, reqPub)
	if recPub.Code != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", recPub.Code)
	}

	// Missing key -> 401
	reqNone := httptest.NewRequest(http.MethodPost, "/api/sites", nil)
	recNone := httptest.NewRecorder()
	RequireAdmin(keys)(roleEcho(&role)).ServeHTTP(recNone, reqNone)
	if recNone.Code != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401; got %d", recNone.Code)
	}
}

func TestRequireAny_ResolvesRole(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}}
	cases := []struct {
		target string
		header string
		code   int
		role   Role
	}{
		{"/", "pub_key", http.StatusOK, RolePublic},
		{"/", "adm_key", http.StatusOK, RoleAdmin},
		{"/ws?key=pub_key", "", http.StatusOK, RolePublic},
		{"/", "nope", http.StatusUnauthorized, RoleNone},
		{"/", "", http.StatusUnauthorized, RoleNone},
	}
	for _, c := range cases {
		var role Role
		req := httptest.NewRequest(http.MethodGet, c.target, nil)
		if c.header != "" {
			req.Header.Set("X-API-Key", c.header)
		}
		rec := httptest.NewRecorder()
		RequireAny(keys)(roleEcho(&role)).ServeHTTP(rec, req)
		if rec.Code != c.code || role != c.role {
			t.Errorf("%s key=%q: got %d role %d, want %d role %d", c.target, c.header, rec.Code, role, c.code, c.role)
		}
	}
}

func TestNoKeysConfigured_AllowsEveryoneAsAdmin(t *testing.T) {
	var role Role
	rec := httptest.NewRecorder()
	RequireAny(Keys{})(roleEcho(&role)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || role != RoleAdmin {
		t.Fatalf("dev mode should allow all; got %d role %d", rec.Code, role)
	}
	rec = httptest.NewRecorder()
	RequireAdmin(Keys{})(roleEcho(&role)).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("dev mode should allow admin routes; got %d", rec.Code)
	}
}
