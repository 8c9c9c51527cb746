package symbols

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"reliance.ns", "RELIANCE.NS"},
		{"  btcusdt ", "BTCUSDT"},
		{"$INFY.NS", "INFY.NS"},
		{"NIFTY", "NIFTY"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsLocal(t *testing.T) {
	if !IsLocal("RELIANCE.NS") {
		t.Error("expected RELIANCE.NS to be local")
	}
	if IsLocal("AAPL") {
		t.Error("expected AAPL to be foreign")
	}
}

func TestToYahoo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NIFTY", "^NSEI"},
		{"BANKNIFTY", "^NSEBANK"},
		{"SENSEX", "^BSESN"},
		{"EURUSD", "EURUSD=X"},
		{"RELIANCE.NS", "RELIANCE.NS"},
		{"AAPL", "AAPL"},
	}
	for _, tt := range tests {
		if got := ToYahoo(tt.in); got != tt.want {
			t.Errorf("ToYahoo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestForexPairs(t *testing.T) {
	pairs := ForexPairs()
	if len(pairs) == 0 {
		t.Fatal("expected forex pairs")
	}
	for i := 1; i < len(pairs); i++ {
		if pairs[i-1].Symbol >= pairs[i].Symbol {
			t.Fatalf("pairs not sorted at %d: %s >= %s", i, pairs[i-1].Symbol, pairs[i].Symbol)
		}
	}

	p, ok := ForexPairInfo("eurusd")
	if !ok {
		t.Fatal("expected EURUSD to be known")
	}
	if p.BaseCurrency != "EUR" || p.QuoteCurrency != "USD" {
		t.Errorf("unexpected pair info: %+v", p)
	}
}
