package query

import "io"

// Cursor applies a Query's pipeline — filter, then order, then offset, then
// limit — over an entry source, producing results lazily one at a time. A
// Cursor is single-pass and not restartable; materialize with Rest if the
// results are needed more than once.
//
// Skipped and Returned expose how many filtered-in source entries were
// consumed by the offset and yielded to the caller respectively. Composite
// stores rely on these counters to stitch pagination across children.
type Cursor struct {
	query Query
	src   func() (Entry, error)

	sorted   []Entry
	sortedAt int
	inited   bool

	skipped  int
	returned int
	done     bool
	err      error
}

// NewCursor binds a query to a lazy entry source. The source returns io.EOF
// when drained. If the query carries sort orders, the whole source is
// materialized and sorted on first use; ordering cannot be applied lazily.
func NewCursor(q Query, src func() (Entry, error)) *Cursor {
	return &Cursor{query: q, src: src}
}

// CursorFromEntries binds a query to a fixed snapshot of entries.
func CursorFromEntries(q Query, entries []Entry) *Cursor {
	i := 0
	return NewCursor(q, func() (Entry, error) {
		if i >= len(entries) {
			return Entry{}, io.EOF
		}
		e := entries[i]
		i++
		return e, nil
	})
}

// Next returns the next result, or io.EOF once the view is exhausted. Any
// source error terminates the cursor and is returned as-is.
func (c *Cursor) Next() (Entry, error) {
	if c.done {
		if c.err != nil {
			return Entry{}, c.err
		}
		return Entry{}, io.EOF
	}
	if c.query.Limit > 0 && c.returned >= c.query.Limit {
		c.done = true
		return Entry{}, io.EOF
	}
	if !c.inited {
		if err := c.init(); err != nil {
			return Entry{}, err
		}
	}
	for {
		e, err := c.pull()
		if err != nil {
			c.done = true
			if err != io.EOF {
				c.err = err
			}
			return Entry{}, err
		}
		if !c.match(e) {
			continue
		}
		if c.skipped < c.query.Offset {
			c.skipped++
			continue
		}
		c.returned++
		return e, nil
	}
}

// Rest drains the cursor into a slice.
func (c *Cursor) Rest() ([]Entry, error) {
	var out []Entry
	for {
		e, err := c.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// Skipped reports how many matching source entries the offset discarded.
func (c *Cursor) Skipped() int { return c.skipped }

// Returned reports how many entries the cursor has yielded.
func (c *Cursor) Returned() int { return c.returned }

func (c *Cursor) init() error {
	c.inited = true
	if len(c.query.Orders) == 0 {
		return nil
	}
	// Ordering is the one stage that cannot stream: materialize and sort.
	for {
		e, err := c.src()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.done = true
			c.err = err
			return err
		}
		c.sorted = append(c.sorted, e)
	}
	Sort(c.sorted, c.query.Orders...)
	return nil
}

func (c *Cursor) pull() (Entry, error) {
	if len(c.query.Orders) == 0 {
		return c.src()
	}
	if c.sortedAt >= len(c.sorted) {
		return Entry{}, io.EOF
	}
	e := c.sorted[c.sortedAt]
	c.sortedAt++
	return e, nil
}

func (c *Cursor) match(e Entry) bool {
	for _, f := range c.query.Filters {
		if !f(e) {
			return false
		}
	}
	return true
}
