package apartment

import (
	"errors"
	"runtime"
	"testing"
)

func TestCheckBeforeEnter(t *testing.T) {
	a := New()
	if err := a.Check(); !errors.Is(err, ErrThreadState) {
		t.Errorf("Check = %v, want ErrThreadState", err)
	}
	if err := a.Leave(); !errors.Is(err, ErrThreadState) {
		t.Errorf("Leave = %v, want ErrThreadState", err)
	}
}

func TestEnterNests(t *testing.T) {
	a := New()
	for range 2 {
		if err := a.Enter(); err != nil {
			t.Fatal(err)
		}
	}
	for range 2 {
		if err := a.Check(); err != nil {
			t.Fatal(err)
		}
		if err := a.Leave(); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Check(); !errors.Is(err, ErrThreadState) {
		t.Errorf("Check after final Leave = %v", err)
	}
}

func TestOtherThreadRejected(t *testing.T) {
	if _, known := threadID(); !known {
		t.Skip("thread ids unavailable on " + runtime.GOOS)
	}
	a := New()
	if err := a.Enter(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = a.Leave() }()

	errs := make(chan [2]error)
	go func() {
		// Keep this goroutine off the owner thread, which stays locked to
		// the test goroutine.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		errs <- [2]error{a.Check(), a.Enter()}
	}()
	got := <-errs
	if !errors.Is(got[0], ErrThreadState) {
		t.Errorf("Check from another thread = %v", got[0])
	}
	if !errors.Is(got[1], ErrThreadState) {
		t.Errorf("Enter from another thread = %v", got[1])
	}
}
