package backtest

import (
	"path/filepath"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
)

// FileProvider loads one bar file per symbol from a directory, matching
// <dir>/<symbol>.csv or <dir>/<symbol>.json.
type FileProvider struct {
	Dir string
}

// NewFileProvider builds a provider rooted at dir.
func NewFileProvider(dir string) FileProvider { return FileProvider{Dir: dir} }

func (p FileProvider) LoadBars(symbol string) ([]bar.MarketBar, error) {
	csvPath := filepath.Join(p.Dir, symbol+".csv")
	if bars, err := bar.LoadCSV(csvPath); err == nil {
		return bars, nil
	}

	jsonPath := filepath.Join(p.Dir, symbol+".json")
	bars, err := bar.LoadJSON(jsonPath)
	if err != nil {
		return nil, execerr.Wrap(execerr.DataNotFound, "no bar file for "+symbol, err)
	}
	return bars, nil
}

// InMemoryProvider serves bars already loaded by the caller; useful for
// tests and for composing data from a live feed.
type InMemoryProvider struct {
	Bars map[string][]bar.MarketBar
}

func (p InMemoryProvider) LoadBars(symbol string) ([]bar.MarketBar, error) {
	bars, ok := p.Bars[symbol]
	if !ok {
		return nil, execerr.New(execerr.DataNotFound, symbol)
	}
	return bars, nil
}
