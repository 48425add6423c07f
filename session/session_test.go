// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package session

import (
	"errors"
	"testing"
	"time"

	vk "github.com/goki/vulkan"

	"github.com/shinyquagsire23/monado-sub011/pacing"
	"github.com/shinyquagsire23/monado-sub011/swapchain"
	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// fakeTarget scripts acquire/present outcomes and records calls.
type fakeTarget struct {
	pacer *pacing.Fake

	created     []xrt.CreateImagesInfo
	surfaceW    int
	surfaceH    int
	acquireErrs []error
	presentErrs []error
	presented   []int
	marks       []xrt.TimingPoint
	hasImages   bool
	destroyed   bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		pacer:    pacing.NewFake(int64(time.Millisecond)),
		surfaceW: 1280,
		surfaceH: 720,
	}
}

func (t *fakeTarget) InitPreGPU() error  { return nil }
func (t *fakeTarget) InitPostGPU() error { return nil }
func (t *fakeTarget) CheckReady() bool   { return true }

func (t *fakeTarget) CreateImages(info xrt.CreateImagesInfo) error {
	// The surface is authoritative, like a resized window.
	info.Width, info.Height = t.surfaceW, t.surfaceH
	t.created = append(t.created, info)
	t.hasImages = true
	return nil
}

func (t *fakeTarget) HasImages() bool     { return t.hasImages }
func (t *fakeTarget) Images() []xrt.Image { return make([]xrt.Image, 3) }

func (t *fakeTarget) Acquire(vk.Semaphore) (int, error) {
	if len(t.acquireErrs) > 0 {
		err := t.acquireErrs[0]
		t.acquireErrs = t.acquireErrs[1:]
		if err != nil {
			return -1, err
		}
	}
	return 0, nil
}

func (t *fakeTarget) Present(_ vk.Queue, index int, _ vk.Semaphore, _, _ int64) error {
	if len(t.presentErrs) > 0 {
		err := t.presentErrs[0]
		t.presentErrs = t.presentErrs[1:]
		if err != nil {
			return err
		}
	}
	t.presented = append(t.presented, index)
	return nil
}

func (t *fakeTarget) Flush() {}

func (t *fakeTarget) CalcFramePacing() xrt.Frame {
	return t.pacer.Predict(pacing.Now())
}

func (t *fakeTarget) MarkTimingPoint(p xrt.TimingPoint, frameID int64, when int64) {
	t.marks = append(t.marks, p)
	t.pacer.Mark(p, frameID, when)
}

func (t *fakeTarget) UpdateTimings()        {}
func (t *fakeTarget) SetTitle(string) error { return nil }
func (t *fakeTarget) Destroy()              { t.destroyed = true }

// fakeLayerSync satisfies layerSync without a GPU.
type fakeLayerSync struct {
	signaled []int
}

func (f *fakeLayerSync) WaitAcquired(int, time.Duration) error { return nil }
func (f *fakeLayerSync) ToApp(int) error                       { return nil }
func (f *fakeLayerSync) ToComp(int) error                      { return nil }
func (f *fakeLayerSync) BarrierInWait() bool                   { return false }
func (f *fakeLayerSync) SignalDone(i int) error {
	f.signaled = append(f.signaled, i)
	return nil
}
func (f *fakeLayerSync) Destroy() {}

func newTestSession(t *testing.T) (*Session, *fakeTarget) {
	t.Helper()
	tgt := newFakeTarget()
	s, err := New(xrt.DefaultConfig(), nil, tgt, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.CreateImages(xrt.CreateImagesInfo{
		Width:  1280,
		Height: 720,
		Format: xrt.FormatB8G8R8A8Srgb,
	}); err != nil {
		t.Fatalf("CreateImages: %v", err)
	}
	return s, tgt
}

func TestFrameFlow(t *testing.T) {
	s, tgt := newTestSession(t)
	defer s.Destroy()

	fr, err := s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if fr.ID != 1 {
		t.Fatalf("frame id: have %d, want 1", fr.ID)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	want := []xrt.TimingPoint{xrt.TimingWakeUp, xrt.TimingBegin, xrt.TimingSubmit}
	if len(tgt.marks) != len(want) {
		t.Fatalf("marks: have %v, want %v", tgt.marks, want)
	}
	for i := range want {
		if tgt.marks[i] != want[i] {
			t.Fatalf("marks[%d]: have %s, want %s", i, tgt.marks[i], want[i])
		}
	}
	if len(tgt.presented) != 1 {
		t.Fatalf("presented: have %d frames, want 1", len(tgt.presented))
	}
}

func TestCommitUnknownFrame(t *testing.T) {
	s, _ := newTestSession(t)
	defer s.Destroy()

	for _, id := range []int64{99, 0, -1, -3} {
		if err := s.Commit(id); !errors.Is(err, xrt.ErrCallOrder) {
			t.Fatalf("Commit(%d): have %v, want ErrCallOrder", id, err)
		}
	}
}

func TestOutOfDateRecovery(t *testing.T) {
	s, tgt := newTestSession(t)
	defer s.Destroy()

	// The surface grew; the present after that fails OUT_OF_DATE.
	tgt.surfaceW, tgt.surfaceH = 1600, 900
	tgt.presentErrs = []error{xrt.ErrOutOfDate}

	fr, err := s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit with OUT_OF_DATE: have %v, want nil", err)
	}
	if len(tgt.presented) != 0 {
		t.Fatal("dropped frame was presented")
	}
	// One initial CreateImages plus the recovery one at the new
	// surface size.
	if len(tgt.created) != 2 {
		t.Fatalf("CreateImages calls: have %d, want 2", len(tgt.created))
	}
	if w, h := tgt.created[1].Width, tgt.created[1].Height; w != 1600 || h != 900 {
		t.Fatalf("recreated extent: have %dx%d, want 1600x900", w, h)
	}

	// The next frame flows normally.
	fr, err = s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit after recovery: %v", err)
	}
	if len(tgt.presented) != 1 {
		t.Fatalf("presented after recovery: have %d, want 1", len(tgt.presented))
	}
}

func TestSuboptimalSchedulesRecreate(t *testing.T) {
	s, tgt := newTestSession(t)
	defer s.Destroy()

	tgt.presentErrs = []error{xrt.ErrSuboptimal}

	fr, err := s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit with SUBOPTIMAL: %v", err)
	}
	created := len(tgt.created)

	// The recreate happens at the top of the next commit.
	fr, err = s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(tgt.created) != created+1 {
		t.Fatalf("CreateImages calls: have %d, want %d", len(tgt.created), created+1)
	}
}

func TestPresentErrorDropsSubmitMark(t *testing.T) {
	s, tgt := newTestSession(t)
	defer s.Destroy()

	tgt.presentErrs = []error{xrt.ErrRuntime}

	fr, err := s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit with present failure: have %v, want nil", err)
	}
	for _, m := range tgt.marks {
		if m == xrt.TimingSubmit {
			t.Fatal("SUBMIT marked on failed present")
		}
	}
}

func TestFatalErrorFallsBackToReady(t *testing.T) {
	s, tgt := newTestSession(t)
	defer s.Destroy()

	// Climb to FOCUSED over successful frames.
	for i := 0; i < 4; i++ {
		fr, err := s.WaitFrame()
		if err != nil {
			t.Fatalf("WaitFrame: %v", err)
		}
		if err := s.Commit(fr.ID); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		if _, ok := s.PollEvent(); !ok {
			t.Fatalf("no event on poll %d", i)
		}
	}
	if st := s.State(); st != StateFocused {
		t.Fatalf("state: have %s, want %s", st, StateFocused)
	}

	tgt.presentErrs = []error{xrt.ErrRuntime}
	fr, err := s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit with fatal present: have %v, want nil", err)
	}

	// One step down per poll, never below READY.
	want := []State{StateVisible, StatePrepared, StateReady}
	for i, w := range want {
		ev, ok := s.PollEvent()
		if !ok {
			t.Fatalf("no event on fallback poll %d", i)
		}
		if ev.State != w {
			t.Fatalf("fallback event %d: have %s, want %s", i, ev.State, w)
		}
	}
	if _, ok := s.PollEvent(); ok {
		t.Fatal("event emitted below READY")
	}

	// A successful frame climbs again.
	fr, err = s.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit after recovery: %v", err)
	}
	ev, ok := s.PollEvent()
	if !ok || ev.State != StatePrepared {
		t.Fatalf("recovery event: have %v %v, want %s", ev, ok, StatePrepared)
	}
}

func TestComposeUsesLastReleased(t *testing.T) {
	s, _ := newTestSession(t)
	defer s.Destroy()

	sync := &fakeLayerSync{}
	client, err := swapchain.New(xrt.SwapchainCreateInfo{
		Width:  256,
		Height: 256,
		Format: xrt.FormatB8G8R8A8Srgb,
		Usage:  xrt.UsageColor | xrt.UsageSampled,
	}, make([]xrt.Image, 3), sync, s.GC())
	if err != nil {
		t.Fatalf("swapchain.New: %v", err)
	}
	s.addLayer(client, sync)

	// No release yet: nothing to compose.
	fr, _ := s.WaitFrame()
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(sync.signaled) != 0 {
		t.Fatalf("signaled before release: %v", sync.signaled)
	}

	if _, err := client.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := client.Wait(time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := client.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	fr, _ = s.WaitFrame()
	if err := s.Commit(fr.ID); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(sync.signaled) != 1 || sync.signaled[0] != 0 {
		t.Fatalf("signaled: have %v, want [0]", sync.signaled)
	}
}

func TestDestroy(t *testing.T) {
	s, tgt := newTestSession(t)
	s.Destroy()
	if !tgt.destroyed {
		t.Fatal("target not destroyed")
	}
	if _, err := s.WaitFrame(); !errors.Is(err, xrt.ErrShutdown) {
		t.Fatalf("WaitFrame after Destroy: have %v, want ErrShutdown", err)
	}
	if err := s.Commit(1); !errors.Is(err, xrt.ErrShutdown) {
		t.Fatalf("Commit after Destroy: have %v, want ErrShutdown", err)
	}
	// Idempotent.
	s.Destroy()
}
