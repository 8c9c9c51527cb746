package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/seenimoa/faststock/pkg/models"
)

func quote(symbol string, price float64) models.Quote {
	return models.Quote{Symbol: symbol, Price: price, Timestamp: time.Now().UTC()}
}

func TestSetThenGet(t *testing.T) {
	s := New()
	s.Set("BTCUSDT", quote("BTCUSDT", 43250.1))

	q, ok := s.Get("BTCUSDT")
	if !ok {
		t.Fatal("Get after Set should find the entry")
	}
	if q.Price != 43250.1 {
		t.Errorf("price: got %v, want 43250.1", q.Price)
	}
}

func TestGetNormalizesSymbol(t *testing.T) {
	s := New()
	s.Set("infy.ns", quote("INFY.NS", 1520))

	if _, ok := s.Get("INFY.NS"); !ok {
		t.Error("lowercase Set should be visible under the uppercase key")
	}
	if _, ok := s.Get(" infy.ns "); !ok {
		t.Error("Get should normalize before lookup")
	}
}

func TestGetAbsent(t *testing.T) {
	s := New()
	if _, ok := s.Get("NOSUCH"); ok {
		t.Error("Get on empty store should report absent")
	}
}

func TestLastWriterWins(t *testing.T) {
	s := New()
	s.Set("AAPL", quote("AAPL", 100))
	s.Set("AAPL", quote("AAPL", 101))

	q, _ := s.Get("AAPL")
	if q.Price != 101 {
		t.Errorf("price: got %v, want the later write 101", q.Price)
	}
	if s.Len() != 1 {
		t.Errorf("Len: got %d, want 1", s.Len())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Set("AAPL", quote("AAPL", 100))

	snap := s.Snapshot()
	snap["AAPL"] = quote("AAPL", 999)
	s.Set("MSFT", quote("MSFT", 400))

	q, _ := s.Get("AAPL")
	if q.Price != 100 {
		t.Error("mutating a snapshot must not affect the store")
	}
	if _, ok := snap["MSFT"]; ok {
		t.Error("later writes must not appear in an earlier snapshot")
	}
}

func TestConcurrentWritersAndSnapshots(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Set("SYM", quote("SYM", float64(n*1000+j)))
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if _, ok := s.Get("SYM"); !ok {
		t.Error("entry should exist after concurrent writes")
	}
}
