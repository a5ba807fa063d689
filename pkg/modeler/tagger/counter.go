package tagger

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Counter tallies tagged units across every text it is given. It is owned
// by the caller and is not safe for concurrent use.
type Counter struct {
	counts map[string]int64
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int64)}
}

// Add counts every unit of a tagged string.
func (c *Counter) Add(tagged string) {
	for _, unit := range strings.Fields(tagged) {
		c.counts[unit]++
	}
}

// Count returns how often unit was seen.
func (c *Counter) Count(unit string) int64 {
	return c.counts[unit]
}

// Len returns the number of distinct units.
func (c *Counter) Len() int {
	return len(c.counts)
}

// Reset clears all counts.
func (c *Counter) Reset() {
	c.counts = make(map[string]int64)
}

// WriteReport writes one "unit -> count" line per unit, sorted by unit.
func (c *Counter) WriteReport(w io.Writer) error {
	units := make([]string, 0, len(c.counts))
	for u := range c.counts {
		units = append(units, u)
	}
	sort.Strings(units)

	bw := bufio.NewWriter(w)
	for _, u := range units {
		if _, err := fmt.Fprintf(bw, "%s -> %d\n", u, c.counts[u]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
