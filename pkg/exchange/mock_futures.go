package exchange

import "context"

// Mock implements FuturesCapability as no-ops; a simulated venue has no
// real margin engine to configure.
var _ FuturesCapability = (*Mock)(nil)

func (m *Mock) SyncTime(ctx context.Context) error                      { return nil }
func (m *Mock) SetLeverage(ctx context.Context, symbol string, l int) error { return nil }
func (m *Mock) SetPositionMode(ctx context.Context, hedge bool) error   { return nil }
func (m *Mock) SetMarginMode(ctx context.Context, symbol string, isolated bool) error {
	return nil
}
