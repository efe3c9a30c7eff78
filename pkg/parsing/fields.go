package parsing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field names used in FieldError.
const (
	FieldPID      = "pid"
	FieldUser     = "user"
	FieldPriority = "priority"
	FieldNice     = "nice"
	FieldVirt     = "virt"
	FieldRes      = "res"
	FieldShr      = "shr"
	FieldStatus   = "status"
	FieldCPU      = "cpu%"
	FieldMem      = "mem%"
	FieldTime     = "time+"
	FieldCommand  = "command"
)

// PriorityRealtime is the priority top displays as "rt".
const PriorityRealtime = -100

const microsecondFactor = 1_000_000

// maxCPUTimeMinutes keeps minutes plus a full minute of seconds within time.Duration.
const maxCPUTimeMinutes = int64(math.MaxInt64/time.Minute) - 1

// top scales wide memory columns with a unit suffix; the multiplier converts to KiB.
var memoryScale = map[byte]int64{
	'm': 1 << 10,
	'g': 1 << 20,
	't': 1 << 30,
	'p': 1 << 40,
	'e': 1 << 50,
}

func parseInt(field, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &FieldError{Kind: ErrMalformedField, Field: field, Value: s}
	}
	return v, nil
}

func parsePriority(s string) (int64, error) {
	if s == "rt" {
		return PriorityRealtime, nil
	}
	return parseInt(FieldPriority, s)
}

func formatPriority(p int64) string {
	if p == PriorityRealtime {
		return "rt"
	}
	return strconv.FormatInt(p, 10)
}

// parseMemKiB accepts a plain KiB count or a scaled value such as "2.5g".
func parseMemKiB(field, s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	if len(s) < 2 {
		return 0, &FieldError{Kind: ErrMalformedField, Field: field, Value: s}
	}
	mult, ok := memoryScale[s[len(s)-1]]
	if !ok {
		return 0, &FieldError{Kind: ErrMalformedField, Field: field, Value: s}
	}
	d, err := decimal.NewFromString(normalizeDecimal(s[:len(s)-1]))
	if err != nil || d.IsNegative() {
		return 0, &FieldError{Kind: ErrMalformedField, Field: field, Value: s}
	}
	return d.Mul(decimal.NewFromInt(mult)).Round(0).IntPart(), nil
}

func normalizeDecimal(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

// ParsePercent parses a percentage written with either a comma or a period separator.
func ParsePercent(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return decimal.Decimal{}, &FieldError{Kind: ErrMalformedField, Field: field, Value: s}
	}
	return d, nil
}

// ParseCPUTime parses top's TIME+ column, "minutes:seconds.fraction", into elapsed time.
// Minutes are not folded into hours, so values of 60 minutes or more are kept whole.
func ParseCPUTime(s string) (time.Duration, error) {
	bad := &FieldError{Kind: ErrMalformedField, Field: FieldTime, Value: s}

	minStr, secStr, ok := strings.Cut(s, ":")
	if !ok || minStr == "" || secStr == "" || strings.Contains(secStr, ":") {
		return 0, bad
	}
	minutes, err := strconv.ParseInt(minStr, 10, 64)
	if err != nil || minutes < 0 || minutes > maxCPUTimeMinutes {
		return 0, bad
	}
	seconds, err := strconv.ParseFloat(normalizeDecimal(secStr), 64)
	if err != nil || math.IsNaN(seconds) || seconds < 0 || seconds >= 60 {
		return 0, bad
	}

	whole := math.Floor(seconds)
	micros := math.Round(math.Mod(seconds, 1) * microsecondFactor)

	return time.Duration(minutes)*time.Minute +
		time.Duration(whole)*time.Second +
		time.Duration(micros)*time.Microsecond, nil
}

// FormatCPUTime renders d in the "m:ss.ffffff" form accepted by ParseCPUTime.
func FormatCPUTime(d time.Duration) string {
	d = d.Round(time.Microsecond)
	minutes := d / time.Minute
	rest := d - minutes*time.Minute
	seconds := rest / time.Second
	micros := (rest - seconds*time.Second) / time.Microsecond
	return fmt.Sprintf("%d:%02d.%06d", minutes, seconds, micros)
}
