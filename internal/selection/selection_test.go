package selection

import (
	"testing"

	"github.com/phobologic/docmeta/internal/docprops"
	"github.com/phobologic/docmeta/internal/model"
)

func makeRecords() []docprops.Record {
	return []docprops.Record{
		{Name: "render", Kind: model.Function, File: "app/render.py"},
		{Name: "Box", Kind: model.Class, File: "app/shapes.py", Slots: []docprops.SlotRecord{
			{Name: "width"},
			{Name: "height"},
		}},
		{Name: "area", Kind: model.Method, Class: "Box", File: "app/shapes.py"},
		{Name: "resize", Kind: model.Method, Class: "Box", File: "app/shapes.py"},
		{Name: "Circle", Kind: model.Class, File: "lib/circle.py", Slots: []docprops.SlotRecord{
			{Name: "radius"},
		}},
	}
}

func qualified(records []docprops.Record) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].QualifiedName()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLimitAll(t *testing.T) {
	t.Parallel()

	records := makeRecords()
	for _, n := range []int{0, -1, 5, 10} {
		if got := Limit(records, n); len(got) != len(records) {
			t.Errorf("Limit(%d) returned %d records, want all", n, len(got))
		}
	}
}

func TestLimitSubset(t *testing.T) {
	t.Parallel()

	got := Limit(makeRecords(), 2)
	if !equalStrings(qualified(got), []string{"render", "Box"}) {
		t.Errorf("got %v", qualified(got))
	}
}

func TestFilterBySymbolClass(t *testing.T) {
	t.Parallel()

	got := FilterBySymbol(makeRecords(), "box")
	want := []string{"Box", "Box.area", "Box.resize"}
	if !equalStrings(qualified(got), want) {
		t.Errorf("got %v, want %v", qualified(got), want)
	}
}

func TestFilterBySymbolMember(t *testing.T) {
	t.Parallel()

	got := FilterBySymbol(makeRecords(), "AREA")
	want := []string{"Box", "Box.area"}
	if !equalStrings(qualified(got), want) {
		t.Errorf("got %v, want %v", qualified(got), want)
	}
}

func TestFilterBySymbolSlotFallback(t *testing.T) {
	t.Parallel()

	got := FilterBySymbol(makeRecords(), "heig")
	if len(got) != 1 || got[0].Name != "Box" {
		t.Fatalf("got %v, want [Box]", qualified(got))
	}
	if len(got[0].Slots) != 1 || got[0].Slots[0].Name != "height" {
		t.Errorf("slots = %+v, want only height", got[0].Slots)
	}
}

func TestFilterBySymbolNoMatch(t *testing.T) {
	t.Parallel()

	if got := FilterBySymbol(makeRecords(), "zzz"); len(got) != 0 {
		t.Errorf("expected no records, got %v", qualified(got))
	}
}

func TestFilterByFile(t *testing.T) {
	t.Parallel()

	got := FilterByFile(makeRecords(), "LIB/")
	if !equalStrings(qualified(got), []string{"Circle"}) {
		t.Errorf("got %v", qualified(got))
	}
}
