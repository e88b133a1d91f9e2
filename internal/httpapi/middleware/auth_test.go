package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseKeys(t *testing.T) {
	set := ParseKeys(" a, b ,,c")
	if len(set) != 3 {
		t.Fatalf("want 3 keys, got %d: %v", len(set), set)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, ok := set[k]; !ok {
			t.Fatalf("missing key %q", k)
		}
	}
}

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	keys := Keys{
		Public: ParseKeys("pub_key"),
		Admin:  ParseKeys("adm_key"),
	}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Admin key -> 200
	reqAdm := httptest.NewRequest(http.MethodGet, "/admin", nil)
	reqAdm.Header.Set("X-API-Key", "adm_key")
	recAdm := httptest.NewRecorder()
	RequireAdmin(keys)(okHandler).ServeHTTP(recAdm, reqAdm)
	if recAdm.Code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", recAdm.Code)
	}

	// Public key -> 403
	reqPub := httptest.NewRequest(http.MethodGet, "/admin", nil)
	reqPub.Header.Set("X-API-Key", "pub_key")
	recPub := httptest.NewRecorder()
	RequireAdmin(keys)(okHandler).ServeHTTP(recPub, reqPub)
	if recPub.Code != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", recPub.Code)
	}

	// Missing key -> 403
	reqNone := httptest.NewRequest(http.MethodGet, "/admin", nil)
	recNone := httptest.NewRecorder()
	RequireAdmin(keys)(okHandler).ServeHTTP(recNone, reqNone)
	if recNone.Code != http.StatusForbidden {
		t.Fatalf("missing key should be 403; got %d", recNone.Code)
	}
}

func TestRequireAny_BearerAndHeader(t *testing.T) {
	keys := Keys{Public: ParseKeys("pub_key")}
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAny(keys)(okHandler)

	// Bearer form
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer pub_key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer key should pass; got %d", rec.Code)
	}

	// Wrong key -> 401
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("X-API-Key", "nope")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key should be 401; got %d", rec2.Code)
	}

	// No keys configured -> open
	open := RequireAny(Keys{})(okHandler)
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec3 := httptest.NewRecorder()
	open.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("no keys configured should allow; got %d", rec3.Code)
	}
}
