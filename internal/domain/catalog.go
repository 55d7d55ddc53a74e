package domain

// CatalogEntry maps one operator to its ordered replacements.
type CatalogEntry struct {
	Operator     string
	Replacements []string
}

// Catalog is the fixed, ordered table of operator replacements. Order fixes
// candidate numbering, so it never changes between runs.
type Catalog struct {
	entries []CatalogEntry
	index   map[string]int
}

// DefaultCatalogEntries is the replacement table used when none is configured.
var DefaultCatalogEntries = []CatalogEntry{
	{Operator: "+", Replacements: []string{"-", "*"}},
	{Operator: "-", Replacements: []string{"+", "*", "&&"}},
	{Operator: "*", Replacements: []string{"/", "+"}},
	{Operator: "/", Replacements: []string{"*", "-"}},
	{Operator: "&&", Replacements: []string{"||"}},
	{Operator: "||", Replacements: []string{"&&"}},
}

// NewCatalog builds a catalog from entries. A repeated operator keeps its
// first position; its replacement list is taken from the last entry.
func NewCatalog(entries ...CatalogEntry) *Catalog {
	c := &Catalog{index: make(map[string]int, len(entries))}

	for _, entry := range entries {
		replacements := append([]string(nil), entry.Replacements...)

		if i, ok := c.index[entry.Operator]; ok {
			c.entries[i].Replacements = replacements
			continue
		}

		c.index[entry.Operator] = len(c.entries)
		c.entries = append(c.entries, CatalogEntry{Operator: entry.Operator, Replacements: replacements})
	}

	return c
}

// DefaultCatalog returns a catalog over DefaultCatalogEntries.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultCatalogEntries...)
}

// ReplacementsFor returns the ordered replacements for op, or nil when op is
// not a catalog key. The returned slice is a copy.
func (c *Catalog) ReplacementsFor(op string) []string {
	i, ok := c.index[op]
	if !ok {
		return nil
	}

	return append([]string(nil), c.entries[i].Replacements...)
}

// Has reports whether op is a catalog key.
func (c *Catalog) Has(op string) bool {
	_, ok := c.index[op]
	return ok
}

// Operators returns the catalog keys in table order.
func (c *Catalog) Operators() []string {
	ops := make([]string, 0, len(c.entries))
	for _, entry := range c.entries {
		ops = append(ops, entry.Operator)
	}

	return ops
}
