package metadata

import (
	"testing"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(nil)
	user, err := r.Register(&testUser{})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for _, name := range []string{"testUser", "TESTUSERS", "users", "app.models.testUser"} {
		got, ok := r.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) found nothing", name)
			continue
		}
		if got != user {
			t.Errorf("Lookup(%q) returned a different entity", name)
		}
	}

	order, ok := r.Lookup("orders")
	if !ok {
		t.Fatal("navigation targets should be indexed")
	}
	if order.EntityName != "testOrder" {
		t.Errorf("EntityName = %q, want %q", order.EntityName, "testOrder")
	}

	if _, ok := r.Lookup("ghost"); ok {
		t.Error("Lookup(ghost) should fail")
	}

	if n := len(r.Entities()); n != 1 {
		t.Errorf("len(Entities()) = %d, want 1", n)
	}
}

func TestRegistry_RegisterTwice(t *testing.T) {
	r := NewRegistry(nil)
	if _, err := r.Register(testUser{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := r.Register(&testUser{}); err == nil {
		t.Error("expected an error for a duplicate registration")
	}
}

func TestRegistry_ExplicitRegistrationWins(t *testing.T) {
	r := NewRegistry(nil)
	if _, err := r.Register(&testUser{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	order, err := r.Register(&testOrder{})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, ok := r.Lookup("testOrder")
	if !ok {
		t.Fatal("Lookup(testOrder) found nothing")
	}
	if got != order {
		t.Error("explicit registration should replace the navigation target")
	}
	if n := len(r.Entities()); n != 2 {
		t.Errorf("len(Entities()) = %d, want 2", n)
	}
}
