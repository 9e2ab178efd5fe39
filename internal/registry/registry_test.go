package registry

import "testing"

func TestBindExplicitLookup(t *testing.T) {
	r := New("conn-")
	obj := &struct{ n int }{n: 1}
	r.BindExplicit("counter", obj)

	got, ok := r.Lookup("counter")
	if !ok || got != obj {
		t.Fatalf("Lookup(counter) = %v, %v; want %v, true", got, ok, obj)
	}
}

func TestBindImplicitCoalescesByIdentity(t *testing.T) {
	r := New("conn-")
	obj := &struct{ n int }{n: 1}

	name1, err := r.BindImplicit(obj)
	if err != nil {
		t.Fatalf("BindImplicit: %v", err)
	}
	name2, err := r.BindImplicit(obj)
	if err != nil {
		t.Fatalf("BindImplicit: %v", err)
	}
	if name1 != name2 {
		t.Fatalf("expected coalesced name, got %q and %q", name1, name2)
	}

	other := &struct{ n int }{n: 2}
	name3, err := r.BindImplicit(other)
	if err != nil {
		t.Fatalf("BindImplicit: %v", err)
	}
	if name3 == name1 {
		t.Fatalf("expected distinct name for distinct object, got %q for both", name3)
	}
}

func TestBindImplicitNonComparableReturnsError(t *testing.T) {
	r := New("conn-")
	_, err := r.BindImplicit([]int{1, 2, 3})
	if err == nil {
		t.Fatal("expected error binding a non-comparable value")
	}
}

func TestReleaseRemovesImplicitOnly(t *testing.T) {
	r := New("conn-")
	explicitObj := &struct{}{}
	r.BindExplicit("fixed", explicitObj)

	implicitObj := &struct{}{}
	name, err := r.BindImplicit(implicitObj)
	if err != nil {
		t.Fatalf("BindImplicit: %v", err)
	}

	r.Release("fixed")
	if _, ok := r.Lookup("fixed"); !ok {
		t.Fatal("Release must not remove an Explicit binding")
	}

	r.Release(name)
	if _, ok := r.Lookup(name); ok {
		t.Fatal("Release must remove an Implicit binding")
	}

	// re-binding the same object after release must mint a fresh name,
	// since the reverse index entry was removed too.
	name2, err := r.BindImplicit(implicitObj)
	if err != nil {
		t.Fatalf("BindImplicit: %v", err)
	}
	if name2 == name {
		t.Fatalf("expected a fresh name after release, got the same one: %q", name)
	}
}

func TestNamesSnapshot(t *testing.T) {
	r := New("conn-")
	r.BindExplicit("a", 1)
	r.BindExplicit("b", 2)
	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want 2 entries", names)
	}
}
