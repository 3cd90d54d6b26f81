package claims

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// SortNewestFirst orders claims by creation time, newest first. Claims
// without a usable date sort last, and ties keep their API order.
func SortNewestFirst(list []Claim) []Claim {
	sorted := append([]Claim(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Created().After(sorted[j].Created())
	})
	return sorted
}

// Summary is what the dashboard stat cards show
type Summary struct {
	Count   int
	Total   float64
	Average float64
}

func Summarize(list []Claim) Summary {
	s := Summary{Count: len(list)}
	for _, c := range list {
		s.Total += c.Amount
	}
	if s.Count > 0 {
		s.Average = s.Total / float64(s.Count)
	}
	return s
}

// FormatCurrency formats amount as US dollars, e.g. $1,234.50. NaN and
// infinities format as $0.00.
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	cents := int64(math.Round(math.Abs(amount) * 100))
	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	var b strings.Builder
	if amount < 0 && cents != 0 {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}

// FormatDate renders a claim date as "Jan 2, 2006". Empty input is "N/A",
// anything unparseable is "Invalid Date".
func FormatDate(raw string) string {
	if raw == "" {
		return "N/A"
	}
	t, ok := parseTime(raw)
	if !ok {
		return "Invalid Date"
	}
	return t.Format("Jan 2, 2006")
}
