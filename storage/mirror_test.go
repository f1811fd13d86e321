package storage

import (
	"errors"
	"testing"
	"time"
)

func newTestMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := NewMirror(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestPutGetRoundtrip(t *testing.T) {
	m := newTestMirror(t)

	if err := m.Put("greeting", "hello"); err != nil {
		t.Fatal(err)
	}

	got, err := m.Get("greeting")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("Get = %q, want %q", got, "hello")
	}

	// Overwrite
	if err := m.Put("greeting", "goodbye"); err != nil {
		t.Fatal(err)
	}
	got, err = m.Get("greeting")
	if err != nil {
		t.Fatal(err)
	}
	if got != "goodbye" {
		t.Errorf("Get after overwrite = %q, want %q", got, "goodbye")
	}
}

func TestGetMissingKey(t *testing.T) {
	m := newTestMirror(t)

	_, err := m.Get("never-written")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing key = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	m := newTestMirror(t)

	if err := m.Put("k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	// Deleting a missing key is fine
	if err := m.Delete("k"); err != nil {
		t.Errorf("Delete missing key = %v", err)
	}
}

func TestJSONRoundtrip(t *testing.T) {
	m := newTestMirror(t)

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := m.PutJSON("rec", record{Name: "widget", Count: 3}); err != nil {
		t.Fatal(err)
	}

	var got record
	if err := m.GetJSON("rec", &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "widget" || got.Count != 3 {
		t.Errorf("GetJSON = %+v", got)
	}
}

func TestLoadToolPolicyDefaults(t *testing.T) {
	m := newTestMirror(t)

	defaults := ToolPolicy{EnableTools: true, AutoExecute: false}
	got := m.LoadToolPolicy(defaults)
	if got != defaults {
		t.Errorf("LoadToolPolicy with empty store = %+v, want defaults %+v", got, defaults)
	}

	saved := ToolPolicy{EnableTools: true, AutoExecute: true, BearerToken: "tok"}
	if err := m.SaveToolPolicy(saved); err != nil {
		t.Fatal(err)
	}
	got = m.LoadToolPolicy(defaults)
	if got != saved {
		t.Errorf("LoadToolPolicy = %+v, want %+v", got, saved)
	}
}

func TestLoadToolPolicyCorruptBlob(t *testing.T) {
	m := newTestMirror(t)

	if err := m.Put(KeyToolPolicy, "{corrupt"); err != nil {
		t.Fatal(err)
	}

	defaults := ToolPolicy{EnableTools: true}
	if got := m.LoadToolPolicy(defaults); got != defaults {
		t.Errorf("corrupt policy blob returned %+v, want defaults", got)
	}
}

func TestTouchConversationPreservesStart(t *testing.T) {
	m := newTestMirror(t)

	if err := m.TouchConversation("session-1"); err != nil {
		t.Fatal(err)
	}

	var first ConversationMeta
	if err := m.GetJSON(KeyConversationMeta, &first); err != nil {
		t.Fatal(err)
	}
	if first.SessionID != "session-1" || first.StartedAt.IsZero() {
		t.Fatalf("first touch = %+v", first)
	}

	time.Sleep(10 * time.Millisecond)
	if err := m.TouchConversation("session-2"); err != nil {
		t.Fatal(err)
	}

	var second ConversationMeta
	if err := m.GetJSON(KeyConversationMeta, &second); err != nil {
		t.Fatal(err)
	}
	if second.SessionID != "session-2" {
		t.Errorf("SessionID = %q, want session-2", second.SessionID)
	}
	if !second.StartedAt.Equal(first.StartedAt) {
		t.Errorf("StartedAt changed: %v -> %v", first.StartedAt, second.StartedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
}
