package rtdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/firekit/auth"
)

func TestRefPathNavigation(t *testing.T) {
	c := testClient(t, "https://db.example.test")

	ref := c.Ref("/rooms/general/messages/")
	if ref.Path() != "/rooms/general/messages" {
		t.Errorf("Path = %q", ref.Path())
	}
	if ref.Key() != "messages" {
		t.Errorf("Key = %q", ref.Key())
	}
	if ref.Parent().Key() != "general" {
		t.Errorf("Parent().Key = %q", ref.Parent().Key())
	}
	if ref.Child("m1/text").Path() != "/rooms/general/messages/m1/text" {
		t.Errorf("Child path = %q", ref.Child("m1/text").Path())
	}
	if c.Ref("/").Parent() != nil {
		t.Error("root must have no parent")
	}
	if c.Ref("top").Parent().Path() != "/" {
		t.Errorf("parent of top-level = %q", c.Ref("top").Parent().Path())
	}
}

func TestRefGetHitsJSONEndpoint(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("auth")
		json.NewEncoder(w).Encode(map[string]any{"name": "ada"})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, AuthToken: "secret"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	snap, err := c.Ref("users/u1").Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotPath != "/users/u1.json" {
		t.Errorf("path = %q, want /users/u1.json", gotPath)
	}
	if gotQuery != "secret" {
		t.Errorf("auth query param = %q, want secret", gotQuery)
	}
	if snap.Child("name").Value() != "ada" {
		t.Errorf("value = %v", snap.Value())
	}
}

func TestClientTokenProviderMintsPerRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query().Get("auth"))
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	minter, err := auth.NewMinter(auth.Config{Secret: "db-secret"})
	if err != nil {
		t.Fatalf("NewMinter: %v", err)
	}
	c, err := NewClient(Config{
		URL:           srv.URL,
		AuthToken:     "stale-static",
		TokenProvider: minter.TokenProviderFor("user-1", nil),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := c.Ref("rooms").Get(context.Background()); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if len(seen) != 2 {
		t.Fatalf("requests seen = %d", len(seen))
	}
	for _, tok := range seen {
		if tok == "stale-static" || tok == "" {
			t.Fatalf("provider must win over the static token, got %q", tok)
		}
		claims, err := minter.Verify(tok)
		if err != nil || claims.UID() != "user-1" {
			t.Fatalf("minted token claims = %+v, %v", claims, err)
		}
	}
}

func TestRefSetSendsPut(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(gotBody)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	err := c.Ref("users/u1").Set(context.Background(), map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotBody["name"] != "ada" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestRefSetNilRejected(t *testing.T) {
	c := testClient(t, "https://db.example.test")
	if err := c.Ref("x").Set(context.Background(), nil); err == nil {
		t.Fatal("Set(nil) must be rejected")
	}
}

func TestRefUpdateSendsPatch(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	err := c.Ref("users/u1").Update(context.Background(), map[string]any{"name": "grace"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
}

func TestRefPushGeneratesChronologicalKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	parent := c.Ref("messages")

	first, err := parent.Push(context.Background(), map[string]any{"n": float64(1)})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	second, err := parent.Push(context.Background(), map[string]any{"n": float64(2)})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	if len(first.Key()) != 20 {
		t.Errorf("push key length = %d, want 20", len(first.Key()))
	}
	if second.Key() <= first.Key() {
		t.Errorf("push keys must sort chronologically: %q then %q", first.Key(), second.Key())
	}
	if first.Parent().Path() != "/messages" {
		t.Errorf("pushed child parent = %q", first.Parent().Path())
	}
}

func TestRefDelete(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if err := c.Ref("users/u1").Delete(context.Background()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
}

func TestQueryGetOrdersChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("orderBy") != `"ts"` {
			t.Errorf("orderBy = %q", r.URL.Query().Get("orderBy"))
		}
		// Unordered JSON object, as the REST surface returns.
		w.Write([]byte(`{"b":{"ts":2},"a":{"ts":3},"c":{"ts":1}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	snap, err := c.Ref("messages").OrderByChild("ts").Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	want := []string{"c", "b", "a"}
	got := snap.Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ordered keys = %v, want %v", got, want)
		}
	}
}
