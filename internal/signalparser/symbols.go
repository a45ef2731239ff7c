package signalparser

import "regexp"

// knownSymbols is the closed alphabet of well-known forex pairs, metals,
// energies, indices, and major crypto tickers (§4.1 "Symbol resolution").
var knownSymbols = map[string]bool{
	"EURUSD": true, "GBPUSD": true, "USDJPY": true, "USDCHF": true, "USDCAD": true,
	"AUDUSD": true, "NZDUSD": true, "EURGBP": true, "EURJPY": true, "GBPJPY": true,
	"AUDJPY": true, "EURAUD": true, "EURCHF": true, "GBPCHF": true, "CADJPY": true,
	"XAUUSD": true, "XAGUSD": true, "USOIL": true, "UKOIL": true,
	"NAS100": true, "US30": true, "SPX500": true, "GER40": true, "UK100": true,
	"BTCUSD": true, "ETHUSD": true, "XRPUSD": true, "LTCUSD": true, "BNBUSD": true,
}

// symbolAliases maps common colloquial names onto the canonical ticker.
var symbolAliases = map[string]string{
	"GOLD":      "XAUUSD",
	"SILVER":    "XAGUSD",
	"OIL":       "USOIL",
	"CRUDE":     "USOIL",
	"NASDAQ":    "NAS100",
	"DOWJONES":  "US30",
	"DOW":       "US30",
	"SP500":     "SPX500",
	"SPX":       "SPX500",
	"DAX":       "GER40",
	"BITCOIN":   "BTCUSD",
	"ETHEREUM":  "ETHUSD",
	"BTC":       "BTCUSD",
	"ETH":       "ETHUSD",
}

var (
	forexPairPattern = regexp.MustCompile(`\b([A-Z]{3})[\/\s]?([A-Z]{3})\b`)
	cryptoPattern    = regexp.MustCompile(`\b(BTC|ETH|XRP|LTC|BNB)[\/\s]?(USD[T]?)\b`)
)

// resolveSymbol implements §4.1's symbol resolution cascade: alias map,
// known-symbol exact match, forex-pair regex, crypto regex.
func resolveSymbol(text string) *string {
	upper := normalizeUpper(text)

	for _, word := range splitWords(upper) {
		if canonical, ok := symbolAliases[word]; ok {
			return &canonical
		}
		if knownSymbols[word] {
			w := word
			return &w
		}
	}

	if m := forexPairPattern.FindStringSubmatch(upper); m != nil {
		candidate := m[1] + m[2]
		if knownSymbols[candidate] {
			return &candidate
		}
	}

	if m := cryptoPattern.FindStringSubmatch(upper); m != nil {
		quote := m[2]
		if quote == "USDT" {
			quote = "USD"
		}
		candidate := m[1] + quote
		return &candidate
	}

	return nil
}
