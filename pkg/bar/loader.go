package bar

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

// LoadCSV loads bars from a CSV file with columns
// symbol, timestamp_ms, open, high, low, close, volume. A header row is
// optional: if the first row's timestamp_ms column does not parse as an
// integer, it is treated as a header and skipped. Rows are returned sorted
// ascending by timestamp_ms.
func LoadCSV(filename string) ([]MarketBar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, execerr.Wrap(execerr.IoError, "open csv", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var bars []MarketBar
	rowIndex := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, execerr.Wrap(execerr.ParseError, fmt.Sprintf("row %d", rowIndex), err)
		}

		if rowIndex == 0 && !looksNumeric(record) {
			rowIndex++
			continue
		}

		b, err := parseCSVRow(record)
		if err != nil {
			return nil, execerr.Wrap(execerr.ParseError, fmt.Sprintf("row %d", rowIndex), err)
		}
		bars = append(bars, b)
		rowIndex++
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].TimestampMs < bars[j].TimestampMs })
	return bars, nil
}

func looksNumeric(record []string) bool {
	if len(record) < 2 {
		return false
	}
	_, err := strconv.ParseInt(record[1], 10, 64)
	return err == nil
}

func parseCSVRow(record []string) (MarketBar, error) {
	if len(record) < 7 {
		return MarketBar{}, fmt.Errorf("expected 7 columns, got %d", len(record))
	}
	ts, err := strconv.ParseInt(record[1], 10, 64)
	if err != nil {
		return MarketBar{}, fmt.Errorf("timestamp_ms: %w", err)
	}
	open, err := decimal.NewFromString(record[2])
	if err != nil {
		return MarketBar{}, fmt.Errorf("open: %w", err)
	}
	high, err := decimal.NewFromString(record[3])
	if err != nil {
		return MarketBar{}, fmt.Errorf("high: %w", err)
	}
	low, err := decimal.NewFromString(record[4])
	if err != nil {
		return MarketBar{}, fmt.Errorf("low: %w", err)
	}
	closeP, err := decimal.NewFromString(record[5])
	if err != nil {
		return MarketBar{}, fmt.Errorf("close: %w", err)
	}
	vol, err := decimal.NewFromString(record[6])
	if err != nil {
		return MarketBar{}, fmt.Errorf("volume: %w", err)
	}
	return MarketBar{
		Symbol:      record[0],
		TimestampMs: ts,
		Open:        open,
		High:        high,
		Low:         low,
		Close:       closeP,
		Volume:      vol,
	}, nil
}

// SaveCSV writes bars to filename with a header row and the same column
// order LoadCSV expects: symbol, timestamp_ms, open, high, low, close,
// volume.
func SaveCSV(filename string, bars []MarketBar) error {
	f, err := os.Create(filename)
	if err != nil {
		return execerr.Wrap(execerr.IoError, "create csv", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"symbol", "timestamp_ms", "open", "high", "low", "close", "volume"}); err != nil {
		return execerr.Wrap(execerr.IoError, "write csv header", err)
	}
	for _, b := range bars {
		record := []string{
			b.Symbol,
			strconv.FormatInt(b.TimestampMs, 10),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
		}
		if err := w.Write(record); err != nil {
			return execerr.Wrap(execerr.IoError, "write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return execerr.Wrap(execerr.IoError, "flush csv", err)
	}
	return nil
}

// LoadJSON loads bars from a JSON file containing an array of MarketBar.
func LoadJSON(filename string) ([]MarketBar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, execerr.Wrap(execerr.IoError, "open json", err)
	}
	defer f.Close()

	var bars []MarketBar
	if err := json.NewDecoder(f).Decode(&bars); err != nil {
		return nil, execerr.Wrap(execerr.ParseError, "decode json", err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].TimestampMs < bars[j].TimestampMs })
	return bars, nil
}
