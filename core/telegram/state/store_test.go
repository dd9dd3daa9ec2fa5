package state

import "testing"

type testSession struct {
	Step  string
	Count int
}

func TestStoreGetFresh(t *testing.T) {
	s := NewStore(func() testSession { return testSession{Step: "start"} })
	got := s.Get(1)
	if got.Step != "start" || got.Count != 0 {
		t.Fatalf("fresh session = %+v", got)
	}
	if s.Len() != 0 {
		t.Fatalf("Get stored a session, len = %d", s.Len())
	}
}

func TestStorePutGetReset(t *testing.T) {
	s := NewStore(func() testSession { return testSession{Step: "start"} })

	s.Put(7, testSession{Step: "middle", Count: 3})
	got := s.Get(7)
	if got.Step != "middle" || got.Count != 3 {
		t.Fatalf("stored session = %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}

	s.Reset(7)
	if s.Len() != 0 {
		t.Fatalf("len after reset = %d, want 0", s.Len())
	}
	if got := s.Get(7); got.Step != "start" {
		t.Fatalf("session after reset = %+v, want fresh", got)
	}
}

func TestStoreNilFresh(t *testing.T) {
	s := NewStore[testSession](nil)
	if got := s.Get(1); got != (testSession{}) {
		t.Fatalf("zero session = %+v", got)
	}
}

func TestStoreIsolatesUsers(t *testing.T) {
	s := NewStore(func() testSession { return testSession{} })
	s.Put(1, testSession{Count: 1})
	s.Put(2, testSession{Count: 2})
	if s.Get(1).Count != 1 || s.Get(2).Count != 2 {
		t.Fatal("sessions leaked between users")
	}
}
