package compare

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical forms carry a one-letter kind prefix so that, for example, the
// string "NULL" never equals a real NULL.
const nullKey = "\x00null"

var numericString = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?\s*$`)

// canon returns the comparison key of a single value.
func (c *Comparator) canon(v any) string {
	switch val := v.(type) {
	case nil:
		return nullKey
	case bool:
		if val {
			return "n:" + decimal.NewFromInt(1).StringFixed(c.places)
		}
		return "n:" + decimal.Zero.StringFixed(c.places)
	case decimal.Decimal:
		return c.number(val)
	case decimal.NullDecimal:
		if !val.Valid {
			return nullKey
		}
		return c.number(val.Decimal)
	case int:
		return c.number(decimal.NewFromInt(int64(val)))
	case int8:
		return c.number(decimal.NewFromInt(int64(val)))
	case int16:
		return c.number(decimal.NewFromInt(int64(val)))
	case int32:
		return c.number(decimal.NewFromInt(int64(val)))
	case int64:
		return c.number(decimal.NewFromInt(val))
	case uint:
		return c.number(decimal.NewFromUint64(uint64(val)))
	case uint8:
		return c.number(decimal.NewFromUint64(uint64(val)))
	case uint16:
		return c.number(decimal.NewFromUint64(uint64(val)))
	case uint32:
		return c.number(decimal.NewFromUint64(uint64(val)))
	case uint64:
		return c.number(decimal.NewFromUint64(val))
	case float32:
		return c.float(float64(val))
	case float64:
		return c.float(val)
	case *big.Int:
		if val == nil {
			return nullKey
		}
		return c.number(decimal.NewFromBigInt(val, 0))
	case *big.Rat:
		if val == nil {
			return nullKey
		}
		return c.number(decimal.NewFromBigRat(val, c.places+1))
	case time.Time:
		return "s:" + canonicalTime(val)
	case []byte:
		return c.str(string(val))
	case string:
		return c.str(val)
	case fmt.Stringer:
		return c.str(val.String())
	default:
		return "o:" + fmt.Sprint(v)
	}
}

func (c *Comparator) number(d decimal.Decimal) string {
	return "n:" + d.Round(c.places).StringFixed(c.places)
}

func (c *Comparator) float(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "f:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return c.number(decimal.NewFromFloat(f))
}

// str treats numeric-looking text as a number: several drivers return
// NUMERIC columns as strings.
func (c *Comparator) str(s string) string {
	if numericString.MatchString(s) {
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return c.number(d)
		}
	}
	return "s:" + s
}

// canonicalTime renders dates without a clock part as 2006-01-02 and
// everything else as 2006-01-02 15:04:05 with fractional seconds if any.
func canonicalTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format("2006-01-02 15:04:05.999999999")
}
