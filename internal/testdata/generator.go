// Package testdata generates import fixtures.
package testdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
)

var (
	descriptions = []string{"UBER EATS* SUSHI", "AMAZON.COM*XYZ", "WOOLWORTHS", "SPOTIFY", "SALARY ACME"}
	groups       = []string{"North", "South", "East", "West"}
)

// WriteRowsCSV writes a header and n pseudo-random rows in the import layout
// (label, group, amount, selectable). Labels are unique; roughly one row in
// ten is locked. The same seed always produces the same file.
func WriteRowsCSV(w io.Writer, seed int64, n int) error {
	rng := rand.New(rand.NewSource(seed))
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "group", "amount", "selectable"}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		amount := float64(rng.Intn(20000)+500) / 100
		if rng.Intn(5) > 0 {
			amount = -amount
		}
		selectable := "yes"
		if rng.Intn(10) == 0 {
			selectable = "no"
		}
		rec := []string{
			fmt.Sprintf("%s #%d", descriptions[rng.Intn(len(descriptions))], i),
			groups[rng.Intn(len(groups))],
			strconv.FormatFloat(amount, 'f', 2, 64),
			selectable,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
