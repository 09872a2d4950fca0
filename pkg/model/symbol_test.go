package model

import "testing"

func TestSymbol_BaseAndQuote(t *testing.T) {
	s := Symbol("EUR/USD")
	if s.Base() != "EUR" {
		t.Fatalf("expected base EUR, got %s", s.Base())
	}
	if s.Quote() != "USD" {
		t.Fatalf("expected quote USD, got %s", s.Quote())
	}
}

func TestTopOfBook_Degenerate(t *testing.T) {
	valid := TopOfBook{BidPrice: 1.1, AskPrice: 1.2}
	if valid.Degenerate() {
		t.Fatal("expected a fully-quoted book to not be degenerate")
	}
}
