package rtdb

import (
	"testing"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: url})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestQueryParamsOrderByChild(t *testing.T) {
	c := testClient(t, "https://db.example.test")
	q := c.Ref("messages").OrderByChild("ts").StartAt(float64(100)).LimitToFirst(25)

	params, err := q.params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["orderBy"] != `"ts"` {
		t.Errorf("orderBy = %q, want %q", params["orderBy"], `"ts"`)
	}
	if params["startAt"] != "100" {
		t.Errorf("startAt = %q, want 100", params["startAt"])
	}
	if params["limitToFirst"] != "25" {
		t.Errorf("limitToFirst = %q, want 25", params["limitToFirst"])
	}
}

func TestQueryParamsStringValuesAreQuoted(t *testing.T) {
	c := testClient(t, "https://db.example.test")
	params, err := c.Ref("users").OrderByChild("name").EqualTo("ada").params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["equalTo"] != `"ada"` {
		t.Errorf("equalTo = %q, want %q", params["equalTo"], `"ada"`)
	}
}

func TestQueryParamsOrderByKeyAndValue(t *testing.T) {
	c := testClient(t, "https://db.example.test")

	p1, err := c.Ref("a").OrderByKey().params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p1["orderBy"] != `"$key"` {
		t.Errorf("orderBy = %q, want $key", p1["orderBy"])
	}

	p2, err := c.Ref("a").OrderByValue().params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p2["orderBy"] != `"$value"` {
		t.Errorf("orderBy = %q, want $value", p2["orderBy"])
	}
}

func TestQueryParamsUnconstrained(t *testing.T) {
	c := testClient(t, "https://db.example.test")
	params, err := c.Ref("a").Query().params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if len(params) != 0 {
		t.Fatalf("unconstrained query must produce no params, got %v", params)
	}
}

func TestQueryParamsImplicitOrderByWithLimit(t *testing.T) {
	c := testClient(t, "https://db.example.test")
	params, err := c.Ref("a").LimitToLast(10).params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["orderBy"] != `"$key"` {
		t.Errorf("filters require an orderBy, got %q", params["orderBy"])
	}
	if params["limitToLast"] != "10" {
		t.Errorf("limitToLast = %q, want 10", params["limitToLast"])
	}
}

func TestQueryValidation(t *testing.T) {
	c := testClient(t, "https://db.example.test")

	if _, err := c.Ref("a").LimitToFirst(5).LimitToLast(5).params(); err == nil {
		t.Error("both limits set must be rejected")
	}
	if _, err := c.Ref("a").OrderByKey().EqualTo("x").StartAt("a").params(); err == nil {
		t.Error("equalTo with startAt must be rejected")
	}
}
