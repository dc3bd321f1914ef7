package companies

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePreset(t *testing.T) {
	r := Default()
	names := r.Resolve("NIFTY50")
	if len(names) != 50 {
		t.Fatalf("Expected 50 companies, got %d", len(names))
	}
	if names[0] != "Reliance Industries" || names[49] != "Trent" {
		t.Errorf("Unexpected preset order: %s ... %s", names[0], names[49])
	}
}

func TestResolveConvertsTickers(t *testing.T) {
	r := Default()
	got := r.Resolve("RELIANCE.NS, Acme Corp ,tcs.ns")
	want := []string{"Reliance Industries", "Acme Corp", "Tata Consultancy Services"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestResolveKeepsBlankEntries(t *testing.T) {
	got := Default().Resolve("Infosys,,Wipro")
	if len(got) != 3 || got[1] != "" {
		t.Errorf("Expected blank middle entry to survive for validation, got %q", got)
	}
	if got := Default().Resolve(""); len(got) != 0 {
		t.Errorf("Expected no companies for empty input, got %q", got)
	}
}

func TestTickerAndName(t *testing.T) {
	r := Default()
	if r.Ticker("Mahindra & Mahindra") != "M&M.NS" {
		t.Errorf("Expected M&M.NS, got %s", r.Ticker("Mahindra & Mahindra"))
	}
	if r.Ticker("Acme Corp") != "Acme Corp" {
		t.Errorf("Expected unknown name unchanged, got %s", r.Ticker("Acme Corp"))
	}
	if r.Name("ZOMATO.NS") != "ZOMATO" {
		t.Errorf("Expected suffix stripped, got %s", r.Name("ZOMATO.NS"))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "company_tickers.json")
	if err := os.WriteFile(path, []byte(`["INFY.NS","ZOMATO.NS"]`), 0644); err != nil {
		t.Fatal(err)
	}

	r := Default()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := r.Resolve("nifty50")
	if len(got) != 2 || got[0] != "Infosys" || got[1] != "ZOMATO" {
		t.Errorf("Expected [Infosys ZOMATO], got %v", got)
	}

	if err := Default().LoadFile(filepath.Join(dir, "missing.json")); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"not":"a list"}`), 0644)
	if err := Default().LoadFile(bad); err == nil {
		t.Error("Expected parse error for non-list file")
	}
}

func TestKiteTokensIsACopy(t *testing.T) {
	tokens := KiteTokens()
	if tokens["RELIANCE"] != 256265 {
		t.Errorf("Expected RELIANCE token 256265, got %d", tokens["RELIANCE"])
	}
	tokens["RELIANCE"] = 1
	if KiteTokens()["RELIANCE"] != 256265 {
		t.Error("Expected table to be unaffected by caller edits")
	}
}
