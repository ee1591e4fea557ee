package catalog

// Catalog is the set of migrations on disk, sorted by ascending sequence.
type Catalog struct {
	Dir        string      `json:"dir"`
	Migrations []Migration `json:"migrations"`
}

func (c *Catalog) Len() int {
	return len(c.Migrations)
}

func (c *Catalog) Find(id string) (Migration, bool) {
	for _, m := range c.Migrations {
		if m.ID == id {
			return m, true
		}
	}
	return Migration{}, false
}

func (c *Catalog) FindSequence(sequence uint64) (Migration, bool) {
	for _, m := range c.Migrations {
		if m.Sequence == sequence {
			return m, true
		}
	}
	return Migration{}, false
}

func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Migrations))
	for i, m := range c.Migrations {
		ids[i] = m.ID
	}
	return ids
}

// NextSequence returns one past the highest sequence, starting at 1.
func (c *Catalog) NextSequence() uint64 {
	if len(c.Migrations) == 0 {
		return 1
	}
	return c.Migrations[len(c.Migrations)-1].Sequence + 1
}
