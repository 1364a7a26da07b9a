package miner

import (
	"testing"
	"time"

	"github.com/krist-network/krist-miner/internal/krist"
)

func testTarget(t *testing.T, hex string, work uint64) krist.Target {
	t.Helper()
	h, err := krist.ParseShortHash(hex)
	if err != nil {
		t.Fatalf("ParseShortHash: %v", err)
	}
	return krist.Target{Block: h, Work: work}
}

func TestMailboxTryReadEmpty(t *testing.T) {
	mb := NewMailbox()
	if _, status := mb.TryRead(); status != TargetUnchanged {
		t.Errorf("TryRead on empty mailbox = %v, want TargetUnchanged", status)
	}
}

func TestMailboxLatestValueWins(t *testing.T) {
	mb := NewMailbox()

	t1 := testTarget(t, "abce8f03b1d2", 100)
	t2 := testTarget(t, "0123456789ab", 200)

	// Two posts between reads: only the second is observed.
	mb.Post(t1)
	mb.Post(t2)

	got, status := mb.TryRead()
	if status != TargetNew {
		t.Fatalf("TryRead = %v, want TargetNew", status)
	}
	if got != t2 {
		t.Errorf("TryRead = %+v, want %+v", got, t2)
	}

	if _, status := mb.TryRead(); status != TargetUnchanged {
		t.Errorf("second TryRead = %v, want TargetUnchanged", status)
	}
}

func TestMailboxBlockingRead(t *testing.T) {
	mb := NewMailbox()
	want := testTarget(t, "abce8f03b1d2", 42)

	done := make(chan krist.Target, 1)
	go func() {
		got, status := mb.Read()
		if status != TargetNew {
			t.Errorf("Read = %v, want TargetNew", status)
		}
		done <- got
	}()

	time.Sleep(10 * time.Millisecond)
	mb.Post(want)

	select {
	case got := <-done:
		if got != want {
			t.Errorf("Read = %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not return after Post")
	}
}

func TestMailboxClose(t *testing.T) {
	mb := NewMailbox()

	done := make(chan TargetStatus, 1)
	go func() {
		_, status := mb.Read()
		done <- status
	}()

	time.Sleep(10 * time.Millisecond)
	mb.Close()

	select {
	case status := <-done:
		if status != TargetClosed {
			t.Errorf("Read after Close = %v, want TargetClosed", status)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not return after Close")
	}

	if _, status := mb.TryRead(); status != TargetClosed {
		t.Errorf("TryRead after Close = %v, want TargetClosed", status)
	}

	// Posting into a closed mailbox stays closed.
	mb.Post(testTarget(t, "abce8f03b1d2", 1))
	if _, status := mb.TryRead(); status != TargetClosed {
		t.Errorf("TryRead after post-close Post = %v, want TargetClosed", status)
	}
}
