package plugin

import (
	"errors"
	"testing"
)

func TestNotifyRunsAllObservers(t *testing.T) {
	d := NewDispatcher(nil)

	var calls []string
	d.Register("update_post_status", func(subject, payload any) error {
		calls = append(calls, "first")
		return nil
	})
	d.Register("update_post_status", func(subject, payload any) error {
		calls = append(calls, "second")
		return nil
	})

	d.Notify("update_post_status", nil, 2)

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected both observers in order, got %v", calls)
	}
}

func TestNotifyIsolatesFailingObservers(t *testing.T) {
	d := NewDispatcher(nil)

	var reached bool
	d.Register("post_delete", func(subject, payload any) error {
		return errors.New("boom")
	})
	d.Register("post_delete", func(subject, payload any) error {
		panic("worse boom")
	})
	d.Register("post_delete", func(subject, payload any) error {
		reached = true
		return nil
	})

	d.Notify("post_delete", nil, nil)

	if !reached {
		t.Fatal("observer after a failure must still run")
	}
}

func TestFilterChainsInRegistrationOrder(t *testing.T) {
	d := NewDispatcher(nil)

	d.RegisterFilter("post_permalink", func(value any) any {
		return value.(string) + "/a"
	})
	d.RegisterFilter("post_permalink", func(value any) any {
		return value.(string) + "/b"
	})

	got := d.Filter("post_permalink", "base")
	if got != "base/a/b" {
		t.Fatalf("expected base/a/b, got %v", got)
	}
}

func TestFilterWithoutRegistrationsPassesThrough(t *testing.T) {
	d := NewDispatcher(nil)
	if got := d.Filter("post_tags", 42); got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}
