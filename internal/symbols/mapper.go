package symbols

import (
	"fmt"
	"strings"
)

// Split breaks a canonical "BASE/QUOTE" trading pair into its legs.
func Split(pair string) (base, quote string, err error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid trading pair %q, want BASE/QUOTE", pair)
	}
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), nil
}

// ToExchange converts a canonical "BASE/QUOTE" pair to the exchange-native
// symbol format. Supported exchanges: binance (BTCUSDT), kucoin (BTC-USDT).
func ToExchange(exchange, pair string) (string, error) {
	base, quote, err := Split(pair)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(exchange) {
	case "binance":
		return base + quote, nil
	case "kucoin":
		return base + "-" + quote, nil
	default:
		return "", fmt.Errorf("unsupported exchange %q", exchange)
	}
}
