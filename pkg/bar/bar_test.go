package bar

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidRejectsNegativeVolume(t *testing.T) {
	b := MarketBar{
		Open: decimal.NewFromInt(100), High: decimal.NewFromInt(110),
		Low: decimal.NewFromInt(90), Close: decimal.NewFromInt(105),
		Volume: decimal.NewFromInt(-1),
	}
	if b.Valid() {
		t.Error("expected negative volume to be invalid")
	}
}

func TestValidRejectsLowAboveOpenOrClose(t *testing.T) {
	b := MarketBar{
		Open: decimal.NewFromInt(100), High: decimal.NewFromInt(110),
		Low: decimal.NewFromInt(101), Close: decimal.NewFromInt(105),
		Volume: decimal.NewFromInt(10),
	}
	if b.Valid() {
		t.Error("expected low above open to be invalid")
	}
}

func TestValidRejectsHighBelowOpenOrClose(t *testing.T) {
	b := MarketBar{
		Open: decimal.NewFromInt(100), High: decimal.NewFromInt(99),
		Low: decimal.NewFromInt(90), Close: decimal.NewFromInt(95),
		Volume: decimal.NewFromInt(10),
	}
	if b.Valid() {
		t.Error("expected high below open to be invalid")
	}
}

func TestValidAcceptsWellFormedBar(t *testing.T) {
	b := MarketBar{
		Open: decimal.NewFromInt(100), High: decimal.NewFromInt(110),
		Low: decimal.NewFromInt(90), Close: decimal.NewFromInt(105),
		Volume: decimal.NewFromInt(10),
	}
	if !b.Valid() {
		t.Error("expected a well-formed bar to be valid")
	}
}

func TestSaveCSVThenLoadCSVRoundTrips(t *testing.T) {
	want := []MarketBar{
		{Symbol: "BTCUSDT", TimestampMs: 60000, Open: decimal.NewFromFloat(100.5), High: decimal.NewFromInt(110), Low: decimal.NewFromInt(90), Close: decimal.NewFromInt(105), Volume: decimal.NewFromInt(10)},
		{Symbol: "BTCUSDT", TimestampMs: 120000, Open: decimal.NewFromInt(105), High: decimal.NewFromInt(115), Low: decimal.NewFromInt(95), Close: decimal.NewFromFloat(109.25), Volume: decimal.NewFromInt(20)},
	}

	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := SaveCSV(path, want); err != nil {
		t.Fatalf("SaveCSV failed: %v", err)
	}

	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d bars, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Symbol != want[i].Symbol || got[i].TimestampMs != want[i].TimestampMs {
			t.Fatalf("bar %d: expected symbol/timestamp %s/%d, got %s/%d", i, want[i].Symbol, want[i].TimestampMs, got[i].Symbol, got[i].TimestampMs)
		}
		if !got[i].Open.Equal(want[i].Open) || !got[i].High.Equal(want[i].High) ||
			!got[i].Low.Equal(want[i].Low) || !got[i].Close.Equal(want[i].Close) || !got[i].Volume.Equal(want[i].Volume) {
			t.Fatalf("bar %d: OHLCV mismatch after round trip: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTimeConvertsMillisecondTimestamp(t *testing.T) {
	b := MarketBar{TimestampMs: 1700000000000}
	got := b.Time()
	if got.Unix() != 1700000000 {
		t.Errorf("Time() = %v, want unix second 1700000000", got)
	}
	if got.Location().String() != "UTC" {
		t.Errorf("expected UTC location, got %s", got.Location())
	}
}
