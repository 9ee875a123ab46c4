package depot_test

import (
	"fmt"

	"github.com/TheBitDrifter/depot"
)

// Position is a simple component for 2D coordinates
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement
type Velocity struct {
	X float64
	Y float64
}

// Name is a simple component for entity identification
type Name struct {
	Value string
}

// Parent is a relation component pointing at a parent entity
type Parent struct{}

// Example shows basic depot usage with entity creation and streams
func Example_basic() {
	// Create a world
	world, _ := depot.Factory.NewWorld()
	defer world.Close()

	// Define components
	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()
	name := depot.FactoryNewComponent[Name]()

	// Create entities
	_ = world.Spawner().Add(position.Plain(), nil).Spawn(5)
	_ = world.Spawner().Add(position.Plain(), nil).Add(velocity.Plain(), Velocity{X: 1, Y: 2}).Spawn(3)

	// Create one named entity
	entities, _ := world.Spawner().
		Add(position.Plain(), Position{X: 10, Y: 20}).
		Add(velocity.Plain(), Velocity{X: 1, Y: 2}).
		Add(name.Plain(), Name{Value: "Player"}).
		SpawnEntities(1)
	player := entities[0]

	// Stream every entity with position and velocity
	query := world.Query().Has(position.Plain(), velocity.Plain()).Build()
	fmt.Printf("Found %d entities with position and velocity\n", query.Count())

	stream := depot.NewStream2(query, position.Plain(), velocity.Plain())
	_ = stream.For(func(pos *Position, vel *Velocity) {
		pos.X += vel.X
		pos.Y += vel.Y
	})

	nme, _ := depot.Get(player, name.Plain())
	pos, _ := depot.Get(player, position.Plain())
	fmt.Printf("Updated %s to position (%.1f, %.1f)\n", nme.Value, pos.X, pos.Y)

	// Output:
	// Found 4 entities with position and velocity
	// Updated Player to position (11.0, 22.0)
}

// Example_queries shows how to use Has, Not and Any terms
func Example_queries() {
	world, _ := depot.Factory.NewWorld()
	defer world.Close()

	// Define components
	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()
	name := depot.FactoryNewComponent[Name]()

	// Create different entity types
	_ = world.Spawner().Add(position.Plain(), nil).Spawn(3)
	_ = world.Spawner().Add(position.Plain(), nil).Add(velocity.Plain(), nil).Spawn(3)
	_ = world.Spawner().Add(position.Plain(), nil).Add(name.Plain(), nil).Spawn(3)
	_ = world.Spawner().Add(position.Plain(), nil).Add(velocity.Plain(), nil).Add(name.Plain(), nil).Spawn(3)

	// Has: entities with position AND velocity
	hasQuery := world.Query().Has(position.Plain(), velocity.Plain()).Build()
	fmt.Printf("Has query matched %d entities\n", hasQuery.Count())

	// Any: entities with velocity OR name
	anyQuery := world.Query().Any(velocity.Plain(), name.Plain()).Build()
	fmt.Printf("Any query matched %d entities\n", anyQuery.Count())

	// Not: entities with position but NOT velocity
	notQuery := world.Query().Has(position.Plain()).Not(velocity.Plain()).Build()
	fmt.Printf("Not query matched %d entities\n", notQuery.Count())

	// Output:
	// Has query matched 6 entities
	// Any query matched 9 entities
	// Not query matched 6 entities
}

// Example_relations shows relation components and their cleanup on despawn
func Example_relations() {
	world, _ := depot.Factory.NewWorld()
	defer world.Close()

	parent := depot.FactoryNewComponent[Parent]()

	root, _ := world.Spawn()
	children, _ := world.Spawner().Add(parent.Relation(root), nil).SpawnEntities(4)

	query := world.Query().Has(parent.AnyRelation()).Build()
	fmt.Printf("%d entities have a parent\n", query.Count())

	// Despawning the target strips the relation from every child
	_ = root.Despawn()
	fmt.Printf("%d entities have a parent\n", query.Count())
	fmt.Printf("children alive: %v\n", children[0].Alive())

	// Output:
	// 4 entities have a parent
	// 0 entities have a parent
	// children alive: true
}

// Example_deferred shows structural changes queued while the world is locked
func Example_deferred() {
	world, _ := depot.Factory.NewWorld()
	defer world.Close()

	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()
	_ = world.Spawner().Add(position.Plain(), nil).Spawn(10)

	query := world.Query().Has(position.Plain()).Build()
	stream := depot.NewStream(query, position.Plain())

	// Adding a component inside the callback moves the entity later
	_ = stream.ForEntity(func(e depot.Entity, pos *Position) {
		_ = e.Add(velocity.Plain(), Velocity{X: 1})
	})

	moving := world.Query().Has(velocity.Plain()).Build()
	fmt.Printf("%d entities moving\n", moving.Count())

	// Output:
	// 10 entities moving
}
