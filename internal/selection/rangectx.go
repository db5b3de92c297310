package selection

// RangeContext tracks the anchor of the last contiguous selection gesture and the
// span of rows it covers. Spans are always computed against the row source's
// current display order, so a range survives re-sorting and streaming rows.
type RangeContext struct {
	source RowSource
	root   string
	end    string
	// members holds the ids the last range gesture applied to.
	members []string
}

// Init binds the row source used to resolve ordering and identity.
func (c *RangeContext) Init(source RowSource) {
	c.source = source
}

// Reset makes id the anchor of a fresh, single-row range.
func (c *RangeContext) Reset(id string) {
	c.root = id
	c.end = id
	c.members = []string{id}
}

func (c *RangeContext) clear() {
	c.root = ""
	c.end = ""
	c.members = nil
}

// Root returns the current anchor.
func (c *RangeContext) Root() (string, bool) {
	return c.root, c.root != ""
}

// IsInRange reports whether id lies between the anchor and the last extension
// point, inclusive.
func (c *RangeContext) IsInRange(id string) bool {
	lo, hi, ok := c.bounds()
	if !ok {
		return false
	}
	idx, ok := c.source.IndexOf(id)
	return ok && idx >= lo && idx <= hi
}

// Extend moves the end of the range to toID. Keep is the new range; Discard is
// every row of the previous range that falls outside it.
func (c *RangeContext) Extend(toID string) Partition {
	if _, ok := c.source.IndexOf(toID); !ok {
		return Partition{}
	}
	if _, ok := c.anchorIndex(); !ok {
		c.Reset(toID)
		row, ok := c.source.Resolve(toID)
		if !ok {
			return Partition{}
		}
		return Partition{Keep: []Row{row}}
	}
	return c.repartition(toID)
}

// Truncate splits the range at id, which must already be inside it. Rows from
// the anchor to id are kept, rows beyond id up to the old end are discarded.
// When id is outside the range the current range is kept as is.
func (c *RangeContext) Truncate(id string) Partition {
	if !c.IsInRange(id) {
		lo, hi, ok := c.bounds()
		if !ok {
			return Partition{}
		}
		return Partition{Keep: c.between(lo, hi)}
	}
	return c.repartition(id)
}

// Forget drops removed ids from the context. It reports whether the anchor
// itself was removed, in which case there is no active range anymore.
func (c *RangeContext) Forget(ids []string) bool {
	if c.root == "" || len(ids) == 0 {
		return false
	}
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	if _, ok := gone[c.root]; ok {
		c.clear()
		return true
	}
	if _, ok := gone[c.end]; ok {
		c.end = c.root
	}
	kept := c.members[:0]
	for _, id := range c.members {
		if _, ok := gone[id]; !ok {
			kept = append(kept, id)
		}
	}
	c.members = kept
	return false
}

func (c *RangeContext) repartition(toID string) Partition {
	rootIdx, _ := c.anchorIndex()
	toIdx, _ := c.source.IndexOf(toID)

	previous := make(map[string]struct{}, len(c.members))
	for _, id := range c.members {
		previous[id] = struct{}{}
	}
	if lo, hi, ok := c.bounds(); ok {
		for _, row := range c.between(lo, hi) {
			previous[row.ID()] = struct{}{}
		}
	}

	lo, hi := order(rootIdx, toIdx)
	var p Partition
	i := 0
	c.source.ForEach(func(row Row) {
		switch {
		case i >= lo && i <= hi:
			p.Keep = append(p.Keep, row)
		default:
			if _, ok := previous[row.ID()]; ok {
				p.Discard = append(p.Discard, row)
			}
		}
		i++
	})

	c.end = toID
	c.members = c.members[:0]
	for _, row := range p.Keep {
		c.members = append(c.members, row.ID())
	}
	return p
}

func (c *RangeContext) anchorIndex() (int, bool) {
	if c.root == "" || c.source == nil {
		return 0, false
	}
	return c.source.IndexOf(c.root)
}

// bounds returns the current display positions spanned by the range. An end
// row the source no longer knows collapses the range to the anchor.
func (c *RangeContext) bounds() (lo, hi int, ok bool) {
	rootIdx, ok := c.anchorIndex()
	if !ok {
		return 0, 0, false
	}
	endIdx, found := c.source.IndexOf(c.end)
	if !found {
		endIdx = rootIdx
	}
	lo, hi = order(rootIdx, endIdx)
	return lo, hi, true
}

func (c *RangeContext) between(lo, hi int) []Row {
	var out []Row
	i := 0
	c.source.ForEach(func(row Row) {
		if i >= lo && i <= hi {
			out = append(out, row)
		}
		i++
	})
	return out
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
