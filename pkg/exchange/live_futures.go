package exchange

import (
	"context"
	"fmt"
	"net/http"
)

// Live implements FuturesCapability; these map onto the venue's futures
// settings endpoints and are idempotent only because the venue itself
// treats repeated identical calls that way — the client here always calls
// through.
var _ FuturesCapability = (*Live)(nil)

func (l *Live) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	body := map[string]interface{}{"symbol": symbol, "leverage": leverage}
	return l.do(ctx, http.MethodPost, "/futures/leverage", body, nil)
}

func (l *Live) SetPositionMode(ctx context.Context, hedge bool) error {
	body := map[string]interface{}{"hedge": hedge}
	return l.do(ctx, http.MethodPost, "/futures/position_mode", body, nil)
}

func (l *Live) SetMarginMode(ctx context.Context, symbol string, isolated bool) error {
	body := map[string]interface{}{"symbol": symbol, "isolated": isolated}
	return l.do(ctx, http.MethodPost, fmt.Sprintf("/futures/margin_mode?symbol=%s", symbol), body, nil)
}
