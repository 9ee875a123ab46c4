package depot

import (
	"slices"
	"testing"
)

func columnOf(values ...string) *column[string] {
	c := newColumn[string](0)
	c.data = append(c.data, values...)
	return c
}

// TestColumnAppend tests broadcast, per-row and zero value appends
func TestColumnAppend(t *testing.T) {
	c := newColumn[int](0)
	c.Append(5, 3)
	c.Append(EachRow(1, 2), 2)
	c.Append(nil, 1)

	if want := []int{5, 5, 5, 1, 2, 0}; !slices.Equal(c.data, want) {
		t.Errorf("data = %v, want %v", c.data, want)
	}
	if c.Len() != 6 {
		t.Errorf("Len() = %d, want 6", c.Len())
	}
	if c.Box(3).(int) != 1 {
		t.Errorf("Box(3) = %v, want 1", c.Box(3))
	}
}

// TestColumnDelete tests that deleted rows are filled from the tail
func TestColumnDelete(t *testing.T) {
	tests := []struct {
		name      string
		start, n  int
		want      []string
		wantMoved int
	}{
		{"First row", 0, 1, []string{"e", "b", "c", "d"}, 1},
		{"Last row", 4, 1, []string{"a", "b", "c", "d"}, 0},
		{"Middle range", 1, 2, []string{"a", "d", "e"}, 2},
		{"Range wider than tail", 0, 3, []string{"d", "e"}, 2},
		{"Tail range", 3, 2, []string{"a", "b", "c"}, 0},
		{"Everything", 0, 5, []string{}, 0},
		{"Nothing", 2, 0, []string{"a", "b", "c", "d", "e"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := columnOf("a", "b", "c", "d", "e")
			moved := c.Delete(tt.start, tt.n)
			if !slices.Equal(c.data, tt.want) {
				t.Errorf("data = %v, want %v", c.data, tt.want)
			}
			if moved != tt.wantMoved {
				t.Errorf("Delete() moved %d, want %d", moved, tt.wantMoved)
			}
		})
	}
}

// TestColumnMigrate tests moving and copying rows between columns
func TestColumnMigrate(t *testing.T) {
	src := columnOf("a", "b")
	dst := columnOf("x")

	src.MigrateTo(dst)
	if src.Len() != 0 {
		t.Errorf("source Len() = %d after MigrateTo", src.Len())
	}
	if want := []string{"x", "a", "b"}; !slices.Equal(dst.data, want) {
		t.Errorf("destination = %v, want %v", dst.data, want)
	}

	src.AppendFrom(dst, 2)
	if want := []string{"b"}; !slices.Equal(src.data, want) {
		t.Errorf("AppendFrom() = %v, want %v", src.data, want)
	}
}

// TestColumnBlit tests overwriting every row
func TestColumnBlit(t *testing.T) {
	c := columnOf("a", "b", "c")
	c.Blit("z")
	if want := []string{"z", "z", "z"}; !slices.Equal(c.data, want) {
		t.Errorf("Blit() = %v, want %v", c.data, want)
	}
	c.Blit(nil)
	if want := []string{"", "", ""}; !slices.Equal(c.data, want) {
		t.Errorf("Blit(nil) = %v, want %v", c.data, want)
	}

	// Slices share the backing array but cannot grow into later rows
	s := c.slice(0, 2)
	s[0] = "w"
	if c.data[0] != "w" || cap(s) != 2 {
		t.Errorf("slice() not a bounded view: %v cap %d", c.data, cap(s))
	}
}
