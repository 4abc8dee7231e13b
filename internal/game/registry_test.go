package game

import "testing"

func TestRegistryAddKeepsExisting(t *testing.T) {
	r := NewRegistry()
	first := NewPlayer("p1")
	if got := r.Add(first); got != first {
		t.Fatalf("add returned a different record")
	}
	if got := r.Add(NewPlayer("p1")); got != first {
		t.Fatalf("duplicate add replaced the existing record")
	}
	if r.Len() != 1 {
		t.Fatalf("len got %d want 1", r.Len())
	}
}

func TestRegistryEachIsOrdered(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		r.Add(NewPlayer(id))
	}
	var seen []string
	r.Each(func(p *Player) { seen = append(seen, p.ID) })
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Fatalf("order got %v", seen)
	}
}

func TestRegistryEachAllowsRemoval(t *testing.T) {
	r := NewRegistry()
	r.Add(NewPlayer("a"))
	r.Add(NewPlayer("b"))
	count := 0
	r.Each(func(p *Player) {
		count++
		r.Remove(p.ID)
	})
	if count != 2 || r.Len() != 0 {
		t.Fatalf("count=%d len=%d", count, r.Len())
	}
}

func TestRegistryOthers(t *testing.T) {
	r := NewRegistry()
	r.Add(NewPlayer("a"))
	r.Add(NewPlayer("b"))
	r.Add(NewPlayer("c"))
	others := r.Others("b")
	if len(others) != 2 || others[0].ID != "a" || others[1].ID != "c" {
		t.Fatalf("others got %d entries", len(others))
	}
	if len(r.Others("zzz")) != 3 {
		t.Fatalf("unknown id should exclude nobody")
	}
}

func TestRegistryCreateUsesUniqueIDs(t *testing.T) {
	r := NewRegistry()
	a := r.Create()
	b := r.Create()
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids %q %q", a.ID, b.ID)
	}
	if got, ok := r.Get(a.ID); !ok || got != a {
		t.Fatalf("get did not return created player")
	}
}
