package subs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "subscriptions.json"))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s := tempStore(t)
	if err := s.Load([]string{"RELIANCE.NS", "infy.ns"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"INFY.NS", "RELIANCE.NS"}
	if got := s.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List: got %v, want %v", got, want)
	}
}

func TestLoadReadsDocument(t *testing.T) {
	s := tempStore(t)
	doc := []byte(`{"symbols":["btcusdt","AAPL","BTCUSDT"]}`)
	if err := os.WriteFile(s.path, doc, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load([]string{"IGNORED"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"AAPL", "BTCUSDT"}
	if got := s.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List: got %v, want %v (dedupe after uppercasing)", got, want)
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(nil); err == nil {
		t.Error("Load on corrupt document should return an error")
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := tempStore(t)
	if !s.Add("infy.ns") {
		t.Error("first Add should report inserted")
	}
	if s.Add("INFY.NS") {
		t.Error("second Add of the same symbol should report not inserted")
	}
	if s.Len() != 1 {
		t.Errorf("Len: got %d, want 1", s.Len())
	}
	if !s.Has("infy.ns") {
		t.Error("Has should see the symbol case-insensitively")
	}
}

func TestRemove(t *testing.T) {
	s := tempStore(t)
	s.Add("AAPL")
	if !s.Remove("aapl") {
		t.Error("Remove of a present symbol should report true")
	}
	if s.Remove("AAPL") {
		t.Error("Remove of an absent symbol should report false")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	s.Add("BTCUSDT")
	s.Add("INFY.NS")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2 := New(s.path)
	if err := s2.Load(nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := s2.List(), s.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip: got %v, want %v", got, want)
	}

	// save(load(doc)) leaves a normalized document unchanged.
	if err := s2.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("saved document is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(doc.Symbols, []string{"BTCUSDT", "INFY.NS"}) {
		t.Errorf("document symbols: got %v", doc.Symbols)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	s.Add("AAPL")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory should only hold the final document, got %v", names)
	}
}
