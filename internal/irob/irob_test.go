package irob

import (
	"errors"
	"testing"

	"intnwtrace/internal/model"
)

func newWifiRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(nil)
	r.AddNetwork("wifi")
	return r
}

func TestEntity_UploadCompletesOnAck(t *testing.T) {
	t.Parallel()

	r := newWifiRegistry(t)
	e, err := r.GetOrCreate("wifi", model.Up, 1, 2.0)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	e.Ack(2.5)
	if e.Complete() {
		t.Fatalf("upload without bytes should not be complete")
	}
	e.AddBytes(3.0, 100)
	if !e.Complete() {
		t.Fatalf("expected complete")
	}
	if *e.Completion != 3.0 {
		t.Fatalf("completion=%v", *e.Completion)
	}
	start, end := e.Interval()
	if start != 2.0 || end != 3.0 || e.AbnormalEnd {
		t.Fatalf("interval=[%v,%v] abnormal=%v", start, end, e.AbnormalEnd)
	}
}

func TestEntity_DownloadNeedsFinishAckAndBytes(t *testing.T) {
	t.Parallel()

	r := newWifiRegistry(t)
	e, _ := r.GetOrCreate("wifi", model.Down, 7, 1.0)
	e.AddBytes(1.1, 512)
	e.Ack(1.2)
	if e.Complete() {
		t.Fatalf("download without expected size should not be complete")
	}
	e.Finish(1.3, 1024)
	if e.Complete() {
		t.Fatalf("download short of expected bytes should not be complete")
	}
	e.AddBytes(1.4, 512)
	if !e.Complete() || *e.Completion != 1.4 {
		t.Fatalf("complete=%v completion=%v", e.Complete(), e.Completion)
	}
}

func TestEntity_CompletionSetOnce(t *testing.T) {
	t.Parallel()

	e := newEntity("wifi", model.Up, 1, 0)
	e.AddBytes(1, 10)
	e.Ack(2)
	e.AddBytes(3, 10)
	e.Ack(4)
	if *e.Completion != 2 {
		t.Fatalf("completion=%v", *e.Completion)
	}
	if e.LastActivity != 4 {
		t.Fatalf("last activity=%v", e.LastActivity)
	}
}

func TestEntity_MarkDroppedFirstWins(t *testing.T) {
	t.Parallel()

	e := newEntity("3G", model.Down, 2, 0)
	if !e.MarkDropped(5) {
		t.Fatalf("first drop should take effect")
	}
	if e.MarkDropped(9) {
		t.Fatalf("second drop should be ignored")
	}
	if *e.Drop != 5 {
		t.Fatalf("drop=%v", *e.Drop)
	}
	_, end := e.Interval()
	if end != 5 || e.AbnormalEnd {
		t.Fatalf("end=%v abnormal=%v", end, e.AbnormalEnd)
	}
}

func TestEntity_IntervalAbnormalEnd(t *testing.T) {
	t.Parallel()

	e := newEntity("wifi", model.Up, 3, 1)
	e.AddBytes(4, 10)
	_, end := e.Interval()
	if end != 4 || !e.Unbounded() {
		t.Fatalf("end=%v unbounded=%v", end, e.Unbounded())
	}
	// Interval is a pure read; the flag is fixed when the run is cloned
	if e.AbnormalEnd {
		t.Fatalf("Interval set AbnormalEnd")
	}
	if c := e.clone(); !c.AbnormalEnd {
		t.Fatalf("clone abnormal=%v", c.AbnormalEnd)
	}
}

func TestEntity_IntervalAckedIncomplete(t *testing.T) {
	t.Parallel()

	e := newEntity("wifi", model.Down, 3, 1)
	e.Ack(2)
	e.MarkDropped(6)
	_, end := e.Interval()
	if end != 2 || e.Unbounded() || e.clone().AbnormalEnd {
		t.Fatalf("end=%v unbounded=%v", end, e.Unbounded())
	}
}

func TestEntity_Size(t *testing.T) {
	t.Parallel()

	e := newEntity("wifi", model.Up, 3, 1)
	if _, err := e.Size(); err == nil {
		t.Fatalf("expected error")
	}
	e.AddBytes(2, 700)
	if n, err := e.Size(); err != nil || n != 700 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestRegistry_Errors(t *testing.T) {
	t.Parallel()

	r := newWifiRegistry(t)
	_, err := r.GetOrCreate("3G", model.Up, 1, 0)
	var netErr *model.UnknownNetworkError
	if !errors.As(err, &netErr) || netErr.Network != "3G" {
		t.Fatalf("err=%v", err)
	}

	err = r.Ack("wifi", model.Up, 42, 1)
	var irobErr *model.UnknownIROBError
	if !errors.As(err, &irobErr) || irobErr.ID != 42 {
		t.Fatalf("err=%v", err)
	}
}

func TestRegistry_DropIncompleteLeavesCompleteAlone(t *testing.T) {
	t.Parallel()

	r := newWifiRegistry(t)
	up, _ := r.GetOrCreate("wifi", model.Up, 1, 1)
	down, _ := r.GetOrCreate("wifi", model.Down, 1, 1)
	done, _ := r.GetOrCreate("wifi", model.Up, 2, 1)
	up.AddBytes(2, 10)
	down.AddBytes(2, 10)
	done.AddBytes(2, 10)
	done.Ack(3)

	if n := r.DropIncomplete("wifi", 5); n != 2 {
		t.Fatalf("dropped=%d", n)
	}
	if up.Drop == nil || *up.Drop != 5 || down.Drop == nil || *down.Drop != 5 {
		t.Fatalf("up=%v down=%v", up.Drop, down.Drop)
	}
	if done.Drop != nil {
		t.Fatalf("complete IROB dropped at %v", *done.Drop)
	}
	if n := r.DropIncomplete("wifi", 9); n != 0 {
		t.Fatalf("second cascade dropped=%d", n)
	}
	if n := r.DropIncomplete("3G", 9); n != 0 {
		t.Fatalf("unknown network dropped=%d", n)
	}
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	r := newWifiRegistry(t)
	e, _ := r.GetOrCreate("wifi", model.Up, 1, 1)
	e.AddBytes(2, 10)

	c := r.Clone()
	e.AddBytes(3, 10)
	ce, err := c.Get("wifi", model.Up, 1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if *ce.Bytes != 10 {
		t.Fatalf("clone bytes=%d", *ce.Bytes)
	}
	if len(c.All()) != 1 {
		t.Fatalf("all=%d", len(c.All()))
	}
}
