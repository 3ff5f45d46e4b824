// internal/builder/editor_test.go
//
// Unit-tests for the ordering engine.
//
// Run: go test ./internal/builder -v

package builder

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/yanizio/adept-forms/internal/field"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("f%d", n)
	}
}

func intp(i int) *int { return &i }

func assertDense(t *testing.T, e *Editor) {
	t.Helper()
	for i, f := range e.Fields() {
		if f.Order != i {
			t.Fatalf("field %s at index %d has order %d", f.ID, i, f.Order)
		}
	}
}

func idsOf(e *Editor) string {
	s := ""
	for _, f := range e.Fields() {
		s += f.ID + " "
	}
	return s
}

func TestAddShiftsAndSelects(t *testing.T) {
	e := NewEditor(seqIDs())
	e.Add(field.TypeText, nil)
	e.Add(field.TypeEmail, nil)
	d, err := e.Add(field.TypeRadio, intp(1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := idsOf(e); got != "f1 f3 f2 " {
		t.Fatalf("order = %q", got)
	}
	if e.Selected() != d.ID || !e.Dirty() {
		t.Fatalf("new field should be selected and editor dirty")
	}
	if _, err := e.Add("slider", nil); err == nil {
		t.Fatalf("unknown type should error")
	}
	e.Add(field.TypeText, intp(99))
	if got := idsOf(e); got != "f1 f3 f2 f4 " {
		t.Fatalf("clamped add = %q", got)
	}
	assertDense(t, e)
}

func TestUpdateMergesAndIgnoresUnknown(t *testing.T) {
	e := NewEditor(seqIDs())
	e.Add(field.TypeNumber, nil)
	label := "Age"
	ok, err := e.Update("f1", Patch{Label: &label, Config: map[string]any{"required": true, "max": 120.0}})
	if !ok || err != nil {
		t.Fatalf("Update: %v %v", ok, err)
	}
	f := e.Fields()[0]
	if f.Label != "Age" || !f.Required {
		t.Fatalf("unexpected field %#v", f)
	}
	if nc := f.Config.(field.NumberConfig); nc.Max == nil || *nc.Max != 120 {
		t.Fatalf("config not merged: %#v", nc)
	}

	rev := e.Revision()
	ok, err = e.Update("ghost", Patch{Label: &label})
	if ok || err != nil || e.Revision() != rev {
		t.Fatalf("unknown id must be a silent no-op")
	}
}

func TestDeleteClosesGap(t *testing.T) {
	e := NewEditor(seqIDs())
	for i := 0; i < 4; i++ {
		e.Add(field.TypeText, nil)
	}
	e.Select("f2")
	if !e.Delete("f2") {
		t.Fatalf("Delete returned false")
	}
	if e.Selected() != "" {
		t.Fatalf("selection should clear when the selected field is deleted")
	}
	if got := idsOf(e); got != "f1 f3 f4 " {
		t.Fatalf("order = %q", got)
	}
	assertDense(t, e)
	if e.Delete("f2") {
		t.Fatalf("second delete should report false")
	}
}

func TestDuplicatePlacesCopyAfterSource(t *testing.T) {
	e := NewEditor(seqIDs())
	e.Add(field.TypeText, nil)
	e.Add(field.TypeRadio, nil)
	e.Add(field.TypeText, nil)

	cp, ok := e.Duplicate("f2")
	if !ok {
		t.Fatalf("Duplicate failed")
	}
	if cp.ID == "f2" || cp.Order != 2 || e.Selected() != cp.ID {
		t.Fatalf("unexpected copy %#v", cp)
	}
	if got := idsOf(e); got != "f1 f2 f4 f3 " {
		t.Fatalf("order = %q", got)
	}
	fs := e.Fields()
	if len(fs[2].Options()) != 1 {
		t.Fatalf("copy should keep options")
	}
	assertDense(t, e)
}

func TestReorderIsArrayMove(t *testing.T) {
	e := NewEditor(seqIDs())
	for i := 0; i < 4; i++ {
		e.Add(field.TypeText, nil)
	}
	e.Reorder(0, 2)
	if got := idsOf(e); got != "f2 f3 f1 f4 " {
		t.Fatalf("move 0→2 = %q", got)
	}
	e.Reorder(3, 0)
	if got := idsOf(e); got != "f4 f2 f3 f1 " {
		t.Fatalf("move 3→0 = %q", got)
	}
	if e.Reorder(0, 9) {
		t.Fatalf("out of range should report false")
	}
	assertDense(t, e)
}

func TestReorderNoOpKeepsOrder(t *testing.T) {
	e := NewEditor(seqIDs())
	for i := 0; i < 3; i++ {
		e.Add(field.TypeText, nil)
	}
	before := idsOf(e)
	for i := 0; i < 3; i++ {
		e.Reorder(i, i)
	}
	if after := idsOf(e); after != before {
		t.Fatalf("no-op reorder changed %q to %q", before, after)
	}
	assertDense(t, e)
}

func TestDensityUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := field.Types()
	e := NewEditor(seqIDs())

	for step := 0; step < 2000; step++ {
		fs := e.Fields()
		pick := func() string {
			if len(fs) == 0 {
				return "none"
			}
			return fs[rng.Intn(len(fs))].ID
		}
		switch rng.Intn(5) {
		case 0:
			var at *int
			if rng.Intn(2) == 0 {
				at = intp(rng.Intn(len(fs) + 2))
			}
			e.Add(types[rng.Intn(len(types))].Type, at)
		case 1:
			e.Delete(pick())
		case 2:
			e.Duplicate(pick())
		case 3:
			if n := len(fs); n > 0 {
				e.Reorder(rng.Intn(n), rng.Intn(n))
			}
		case 4:
			req := rng.Intn(2) == 0
			e.Update(pick(), Patch{Required: &req})
		}
		assertDense(t, e)
	}
}

func TestSetFieldsNormalises(t *testing.T) {
	e := NewEditor(seqIDs())
	e.SetFields([]field.Definition{
		{ID: "b", Type: field.TypeText, Order: 7, Config: field.PlainConfig{}},
		{ID: "a", Type: field.TypeText, Order: 2, Config: field.PlainConfig{}},
	})
	if got := idsOf(e); got != "a b " {
		t.Fatalf("order = %q", got)
	}
	assertDense(t, e)
}

func TestMarkSavedRespectsRevision(t *testing.T) {
	e := NewEditor(seqIDs())
	e.Add(field.TypeText, nil)
	snap := e.Snapshot()
	e.SetTitle("Changed after snapshot")

	e.MarkSaved(snap.Revision, fixedNow, []field.Definition{{ID: "f1", PersistedID: "p1"}})
	if !e.Dirty() {
		t.Fatalf("edits after the snapshot must keep the editor dirty")
	}
	if e.Fields()[0].PersistedID != "p1" {
		t.Fatalf("persisted id not applied")
	}
	e.MarkSaved(e.Revision(), fixedNow, nil)
	if e.Dirty() {
		t.Fatalf("save of the current revision should clear dirty")
	}
	if st := e.State(); st.LastSaved == nil || !st.LastSaved.Equal(fixedNow) {
		t.Fatalf("lastSaved not recorded")
	}
}
