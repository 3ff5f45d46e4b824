package builder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/store"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

const delay = 2 * time.Second

type recorder struct {
	mu        sync.Mutex
	revs      []uint64
	active    int
	maxActive int
	hook      func(call int)
	err       error
}

func (r *recorder) save(_ context.Context, snap Snapshot) ([]field.Definition, error) {
	r.mu.Lock()
	r.revs = append(r.revs, snap.Revision)
	call := len(r.revs)
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
	return snap.Fields, r.err
}

func (r *recorder) calls() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.revs...)
}

func TestDebouncerArmCancel(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	n := 0
	d := NewDebouncer(clk, delay, func() { n++ })

	d.Arm()
	clk.Advance(time.Second)
	d.Arm()
	clk.Advance(time.Second)
	if n != 0 {
		t.Fatalf("fired during quiet period")
	}
	clk.Advance(time.Second)
	if n != 1 || d.Pending() {
		t.Fatalf("expected one fire, got %d", n)
	}

	d.Arm()
	if !d.Cancel() {
		t.Fatalf("Cancel should report a pending fire")
	}
	clk.Advance(time.Minute)
	if n != 1 {
		t.Fatalf("cancelled fire ran")
	}
}

func TestAutoSaveCoalescesBurst(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	rec := &recorder{}
	a := NewAutoSaver(clk, delay, rec.save, nil)

	for rev := uint64(1); rev <= 3; rev++ {
		a.Schedule(Snapshot{Revision: rev})
		clk.Advance(delay / 2)
	}
	if len(rec.calls()) != 0 {
		t.Fatalf("saved before quiet period elapsed")
	}
	clk.Advance(delay)
	got := rec.calls()
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected one save of revision 3, got %v", got)
	}
}

func TestAutoSaveTrailingSave(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	rec := &recorder{}
	var a *AutoSaver
	rec.hook = func(call int) {
		if call == 1 {
			// An edit lands and its quiet period elapses mid-save.
			a.Schedule(Snapshot{Revision: 2})
			clk.Advance(delay)
		}
	}
	a = NewAutoSaver(clk, delay, rec.save, nil)

	a.Schedule(Snapshot{Revision: 1})
	clk.Advance(delay)

	got := rec.calls()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected saves [1 2], got %v", got)
	}
	if rec.maxActive != 1 {
		t.Fatalf("saves overlapped: max active %d", rec.maxActive)
	}
	if a.InFlight() || a.Pending() {
		t.Fatalf("saver should be idle")
	}
}

func TestAutoSaveCloseCancelsPending(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	rec := &recorder{}
	a := NewAutoSaver(clk, delay, rec.save, nil)

	a.Schedule(Snapshot{Revision: 1})
	if !a.Close() {
		t.Fatalf("Close should report dropped work")
	}
	clk.Advance(time.Minute)
	if len(rec.calls()) != 0 {
		t.Fatalf("pending save ran after Close")
	}
	a.Schedule(Snapshot{Revision: 2})
	clk.Advance(time.Minute)
	if len(rec.calls()) != 0 {
		t.Fatalf("Schedule after Close should be ignored")
	}
	if _, err := a.SaveNow(context.Background(), Snapshot{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("SaveNow after Close = %v", err)
	}
}

func TestSaveNowSupersedesPending(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	rec := &recorder{}
	a := NewAutoSaver(clk, delay, rec.save, nil)

	a.Schedule(Snapshot{Revision: 1})
	if _, err := a.SaveNow(context.Background(), Snapshot{Revision: 2}); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}
	clk.Advance(time.Minute)
	got := rec.calls()
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected a single manual save, got %v", got)
	}
	if clk.Pending() != 0 {
		t.Fatalf("timer left armed")
	}
}

func TestSessionAutoSaveClearsDirty(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	rec := &recorder{}
	s := NewSession(store.Form{ID: "form1", OwnerID: "u1", Title: "T"}, nil, rec.save,
		SessionOptions{Clock: clk, Delay: delay, NewID: seqIDs()})

	st, err := s.Apply([]Op{
		{Kind: OpAdd, Type: field.TypeText},
		{Kind: OpAdd, Type: field.TypeRadio, At: intp(0)},
		{Kind: OpSetTitle, Title: "Pets"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !st.Dirty || len(st.Fields) != 2 || st.Fields[0].Type != field.TypeRadio {
		t.Fatalf("unexpected state %#v", st)
	}

	clk.Advance(delay)
	if got := rec.calls(); len(got) != 1 {
		t.Fatalf("expected one auto-save, got %v", got)
	}
	if s.State().Dirty {
		t.Fatalf("auto-save should clear dirty")
	}

	// Selecting is not an edit.
	s.Apply([]Op{{Kind: OpSelect, ID: "f1"}})
	clk.Advance(delay)
	if got := rec.calls(); len(got) != 1 {
		t.Fatalf("select should not trigger a save, got %v", got)
	}
}

func TestSessionApplyStopsAtBadOp(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	rec := &recorder{}
	s := NewSession(store.Form{ID: "form1", OwnerID: "u1"}, nil, rec.save,
		SessionOptions{Clock: clk, Delay: delay, NewID: seqIDs()})

	st, err := s.Apply([]Op{
		{Kind: OpAdd, Type: field.TypeText},
		{Kind: "explode"},
		{Kind: OpAdd, Type: field.TypeText},
	})
	if !errors.Is(err, ErrBadOp) {
		t.Fatalf("expected ErrBadOp, got %v", err)
	}
	if len(st.Fields) != 1 {
		t.Fatalf("ops before the failure should stay applied: %d fields", len(st.Fields))
	}
	clk.Advance(delay)
	if len(rec.calls()) != 1 {
		t.Fatalf("applied ops should still be saved")
	}
}

func TestSessionSaveFailureKeepsDirty(t *testing.T) {
	clk := NewFakeClock(fixedNow)
	rec := &recorder{err: errors.New("db down")}
	s := NewSession(store.Form{ID: "form1", OwnerID: "u1"}, nil, rec.save,
		SessionOptions{Clock: clk, Delay: delay, NewID: seqIDs()})

	s.Apply([]Op{{Kind: OpAdd, Type: field.TypeEmail}})
	if _, err := s.Save(context.Background()); err == nil {
		t.Fatalf("expected save error")
	}
	if !s.State().Dirty {
		t.Fatalf("failed save must leave the session dirty")
	}
}
