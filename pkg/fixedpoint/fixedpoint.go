// Package fixedpoint renders and parses the engine's scaled integer values.
// Prices and quantities travel as int64 scaled by 1e8; the gateway never
// does arithmetic on them, it only formats them for humans.
package fixedpoint

import (
	"fmt"
	"strconv"
	"strings"
)

// Scale is the number of scaled units per whole unit.
const Scale = 100_000_000

const fracDigits = 8

// Format renders a scaled value as a decimal string without trailing
// zeros, e.g. 150000000 -> "1.5" and 5000000000000 -> "50000".
func Format(v int64) string {
	sign := ""
	u := uint64(v)
	if v < 0 {
		sign = "-"
		u = -uint64(v)
	}

	whole := u / Scale
	frac := u % Scale
	if frac == 0 {
		return sign + strconv.FormatUint(whole, 10)
	}
	return sign + removeTrailingZeros(fmt.Sprintf("%d.%08d", whole, frac))
}

// Parse converts a decimal string to a scaled value. At most eight
// fractional digits are accepted; more would silently lose precision.
func Parse(s string) (int64, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return 0, fmt.Errorf("invalid decimal: empty string")
	}

	neg := false
	switch in[0] {
	case '-':
		neg = true
		in = in[1:]
	case '+':
		in = in[1:]
	}

	wholePart := in
	fracPart := ""
	if dot := strings.IndexByte(in, '.'); dot >= 0 {
		wholePart, fracPart = in[:dot], in[dot+1:]
	}
	if wholePart == "" && fracPart == "" {
		return 0, fmt.Errorf("invalid decimal: %q", s)
	}
	if len(fracPart) > fracDigits {
		return 0, fmt.Errorf("invalid decimal %q: more than %d fractional digits", s, fracDigits)
	}

	whole := uint64(0)
	if wholePart != "" {
		var err error
		whole, err = strconv.ParseUint(wholePart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid decimal: %q", s)
		}
	}

	frac := uint64(0)
	if fracPart != "" {
		padded := fracPart + strings.Repeat("0", fracDigits-len(fracPart))
		var err error
		frac, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid decimal: %q", s)
		}
	}

	const maxWhole = uint64(1<<63-1) / Scale
	if whole > maxWhole || (whole == maxWhole && frac > uint64(1<<63-1)%Scale) {
		return 0, fmt.Errorf("decimal out of range: %q", s)
	}

	scaled := int64(whole*Scale + frac)
	if neg {
		scaled = -scaled
	}
	return scaled, nil
}

// removeTrailingZeros trims insignificant fractional zeros.
func removeTrailingZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
