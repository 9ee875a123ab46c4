package depot

import (
	"testing"
)

func spawnWith(t *testing.T, w *World, n int, exprs ...Expression) []Entity {
	t.Helper()
	spawner := w.Spawner()
	for _, expr := range exprs {
		spawner.Add(expr, nil)
	}
	entities, err := spawner.SpawnEntities(n)
	if err != nil {
		t.Fatalf("SpawnEntities() error = %v", err)
	}
	return entities
}

// TestQueryFiltering tests the basic query filtering capabilities
func TestQueryFiltering(t *testing.T) {
	// Create components once to reuse
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()
	pos, vel, health := posComp.Plain(), velComp.Plain(), healthComp.Plain()

	type entitySetup struct {
		components []Expression
		count      int
	}

	standard := []entitySetup{
		{[]Expression{pos, vel, health}, 5},
		{[]Expression{pos, vel}, 10},
		{[]Expression{pos, health}, 15},
		{[]Expression{vel, health}, 20},
		{[]Expression{pos}, 25},
		{[]Expression{vel}, 30},
		{[]Expression{health}, 35},
	}

	tests := []struct {
		name            string
		has, not, any   []Expression
		expectedMatches int
	}{
		{"Has matches all terms", []Expression{pos, vel}, nil, nil, 15},
		{"Has single", []Expression{health}, nil, nil, 75},
		{"Any matches either", nil, nil, []Expression{pos, vel}, 105},
		{"Not excludes", nil, []Expression{vel}, nil, 75},
		{"Has with Not", []Expression{pos}, []Expression{vel}, nil, 40},
		{"Has with Any", []Expression{pos}, nil, []Expression{vel, health}, 30},
		{"All three", []Expression{health}, []Expression{pos}, []Expression{vel}, 20},
		{"Empty mask matches everything", nil, nil, nil, 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			for _, setup := range standard {
				spawnWith(t, w, setup.count, setup.components...)
			}

			query := w.Query().Has(tt.has...).Not(tt.not...).Any(tt.any...).Build()
			if got := query.Count(); got != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", got, tt.expectedMatches)
			}

			// Iteration agrees with Count
			seen := 0
			for _, err := range query.Entities() {
				if err != nil {
					t.Fatalf("Entities() error = %v", err)
				}
				seen++
			}
			if seen != tt.expectedMatches {
				t.Errorf("Entities yielded %d, want %d", seen, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWildcards tests wildcard terms against relations and links
func TestQueryWildcards(t *testing.T) {
	likesComp := FactoryNewComponent[Likes]()
	nameComp := FactoryNewComponent[string]()
	w := newTestWorld(t)

	a, _ := w.Spawn()
	b, _ := w.Spawn()

	spawnWith(t, w, 3, likesComp.Plain())
	spawnWith(t, w, 4, likesComp.Relation(a))
	spawnWith(t, w, 5, likesComp.Relation(b))
	spawnWith(t, w, 6, Link(nameComp, "x"))
	spawnWith(t, w, 7, likesComp.Relation(a), likesComp.Relation(b))

	tests := []struct {
		name    string
		has     Expression
		matches int
	}{
		{"Plain only", likesComp.Plain(), 3},
		{"Specific target", likesComp.Relation(a), 11},
		{"Any relation", likesComp.AnyRelation(), 16},
		{"Any target", likesComp.AnyTarget(), 16},
		{"Any variant", likesComp.Any(), 19},
		{"Any link", nameComp.AnyLink(), 6},
		{"Specific link", Link(nameComp, "x"), 6},
		{"Other link", Link(nameComp, "y"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Query().Has(tt.has).Build().Count(); got != tt.matches {
				t.Errorf("Count() = %d, want %d", got, tt.matches)
			}
		})
	}
}

// TestQueryMemoization tests that equal masks share one Query
func TestQueryMemoization(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	w := newTestWorld(t)

	q1 := w.Query().Has(posComp.Plain(), velComp.Plain()).Build()
	q2 := w.Query().Has(velComp.Plain(), posComp.Plain()).Build()
	if q1 != q2 {
		t.Errorf("Same mask in different order built distinct queries")
	}

	q3 := w.Query().Has(posComp.Plain()).Not(velComp.Plain()).Build()
	if q1 == q3 {
		t.Errorf("Different masks share a query")
	}
}

// TestQueryTracksArchetypes tests that queries see archetypes created and
// disposed after they were built
func TestQueryTracksArchetypes(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	w := newTestWorld(t)

	query := w.Query().Has(posComp.Plain()).Build()
	if query.Count() != 0 || len(query.Archetypes()) != 0 {
		t.Fatalf("New query matched %d entities", query.Count())
	}

	entities := spawnWith(t, w, 10, posComp.Plain())
	if query.Count() != 10 {
		t.Errorf("Count() = %d after spawn, want 10", query.Count())
	}
	if !query.Contains(entities[0]) {
		t.Errorf("Contains() = false for matched entity")
	}

	// Moving every entity out leaves the old archetype empty until GC
	for _, e := range entities {
		if err := e.Add(velComp.Plain(), nil); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if query.Count() != 10 {
		t.Errorf("Count() = %d after move, want 10", query.Count())
	}
	if len(query.Archetypes()) != 2 {
		t.Errorf("Query tracks %d archetypes before GC, want 2", len(query.Archetypes()))
	}
	if err := w.GC(); err != nil {
		t.Fatalf("GC() error = %v", err)
	}
	if len(query.Archetypes()) != 1 {
		t.Errorf("Query tracks %d archetypes after GC, want 1", len(query.Archetypes()))
	}

	other, _ := w.Spawn()
	if query.Contains(other) {
		t.Errorf("Contains() = true for unmatched entity")
	}
}

// TestQueryDespawn tests bulk despawning through a query
func TestQueryDespawn(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	tests := []struct {
		name   string
		locked bool
	}{
		{"Immediate", false},
		{"Deferred", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			spawnWith(t, w, 20, posComp.Plain())
			spawnWith(t, w, 5, posComp.Plain(), velComp.Plain())
			survivors := spawnWith(t, w, 7, velComp.Plain())

			if tt.locked {
				w.Lock()
			}
			if err := w.Query().Has(posComp.Plain()).Build().Despawn(); err != nil {
				t.Fatalf("Despawn() error = %v", err)
			}
			if tt.locked {
				if w.Count() != 32 {
					t.Errorf("Count() = %d while locked, want 32", w.Count())
				}
				if err := w.Unlock(); err != nil {
					t.Fatalf("Unlock() error = %v", err)
				}
			}

			if w.Count() != 7 {
				t.Errorf("Count() = %d, want 7", w.Count())
			}
			for _, e := range survivors {
				if !e.Alive() {
					t.Fatalf("Unmatched entity %v was despawned", e)
				}
			}
		})
	}
}

// TestQueryBatch tests bulk component changes and their conflict modes
func TestQueryBatch(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name       string
		add        AddConflict
		remove     RemoveConflict
		addHealth  bool
		removeVel  bool
		wantErr    bool
		wantHealth Health
	}{
		{"Strict add to fresh", AddStrict, RemoveStrict, true, false, true, Health{}},
		{"Preserve keeps existing", AddPreserve, RemoveStrict, true, false, false, Health{Current: 1}},
		{"Replace overwrites", AddReplace, RemoveStrict, true, false, false, Health{Current: 9, Max: 9}},
		{"Strict remove missing", AddStrict, RemoveStrict, false, true, true, Health{Current: 1}},
		{"Allow remove missing", AddStrict, RemoveAllow, false, true, false, Health{Current: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)

			// Half the entities already hold health, none hold velocity
			plain := spawnWith(t, w, 4, posComp.Plain())
			healthy, _ := w.Spawner().
				Add(posComp.Plain(), nil).
				Add(healthComp.Plain(), Health{Current: 1}).
				SpawnEntities(4)

			batch := w.Query().Has(posComp.Plain()).Build().Batch(tt.add, tt.remove)
			if tt.addHealth {
				batch.Add(healthComp.Plain(), Health{Current: 9, Max: 9})
			}
			if tt.removeVel {
				batch.Remove(velComp.Plain())
			}
			err := batch.Submit()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				// A rejected batch changes nothing
				if Has(plain[0], healthComp.Plain()) {
					t.Errorf("Rejected batch still added components")
				}
				return
			}

			got, err := Get(healthy[0], healthComp.Plain())
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if *got != tt.wantHealth {
				t.Errorf("Existing health = %+v, want %+v", *got, tt.wantHealth)
			}
			if tt.addHealth {
				fresh, err := Get(plain[0], healthComp.Plain())
				if err != nil {
					t.Fatalf("Get() on fresh entity error = %v", err)
				}
				if *fresh != (Health{Current: 9, Max: 9}) {
					t.Errorf("Fresh health = %+v, want {9 9}", *fresh)
				}
			}
		})
	}
}

// TestCursor tests walking a query row by row
func TestCursor(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	w := newTestWorld(t)

	spawnWith(t, w, 3, posComp.Plain())
	spawnWith(t, w, 4, posComp.Plain(), velComp.Plain())
	spawnWith(t, w, 5, velComp.Plain())

	query := w.Query().Has(posComp.Plain()).Build()
	cursor := query.Cursor()
	if cursor.TotalMatched() != 7 {
		t.Errorf("TotalMatched() = %d, want 7", cursor.TotalMatched())
	}

	count := 0
	for cursor.Next() {
		if !w.Locked() {
			t.Fatalf("World not locked during cursor walk")
		}
		if !posComp.CheckCursor(cursor) {
			t.Fatalf("Cursor on archetype without position")
		}
		posComp.GetFromCursor(cursor).X = float64(count)
		count++
	}
	if err := cursor.Err(); err != nil {
		t.Fatalf("Cursor error = %v", err)
	}
	if count != 7 {
		t.Errorf("Cursor visited %d entities, want 7", count)
	}
	if w.Locked() {
		t.Errorf("World still locked after cursor finished")
	}

	// Structural changes during the walk are deferred
	for cursor.Next() {
		if err := cursor.Entity().Despawn(); err != nil {
			t.Fatalf("Despawn() error = %v", err)
		}
	}
	if w.Count() != 5 {
		t.Errorf("Count() = %d after deferred despawn, want 5", w.Count())
	}
}
