package depot

// crossJoin walks every combination of columns that satisfy a list of stream
// slots in one archetype. A concrete slot has exactly one column; a wildcard
// slot may have several, and the join then visits the same rows once per
// combination.
type crossJoin struct {
	columns [][]storage
	cursor  []int
	count   int
}

// crossJoin returns an empty join when the archetype has no rows or a slot
// has no matching column.
func (a *Archetype) crossJoin(types []TypeExpression) crossJoin {
	if a.IsEmpty() {
		return crossJoin{}
	}
	j := crossJoin{
		columns: make([][]storage, len(types)),
		cursor:  make([]int, len(types)),
		count:   a.Count(),
	}
	for slot, expr := range types {
		for i, member := range a.signature.exprs {
			if member.Matches(expr) {
				j.columns[slot] = append(j.columns[slot], a.storages[i])
			}
		}
		if len(j.columns[slot]) == 0 {
			return crossJoin{}
		}
	}
	return j
}

func (j *crossJoin) empty() bool {
	return j.count == 0
}

// selected returns the current column for slot.
func (j *crossJoin) selected(slot int) storage {
	return j.columns[slot][j.cursor[slot]]
}

// iterate advances to the next combination, odometer style, and reports
// whether one was left.
func (j *crossJoin) iterate() bool {
	for slot := len(j.cursor) - 1; slot >= 0; slot-- {
		j.cursor[slot]++
		if j.cursor[slot] < len(j.columns[slot]) {
			return true
		}
		j.cursor[slot] = 0
	}
	return false
}

func joined[T any](j *crossJoin, slot int) []T {
	return j.selected(slot).(*column[T]).slice(0, j.count)
}
