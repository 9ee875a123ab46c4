/*
Package depot provides archetype-based entity/component storage with filtered, optionally parallel iteration.

Entities with the same set of components share an Archetype, which stores each component in its
own densely packed column. Components can be plain, or target another entity (a relation), an
object (a link) or a custom key. Every such variant is addressed by a 64 bit TypeExpression.

Core Concepts:

  - Entity: A handle to a set of components in a World.
  - Component: A typed handle a Go type is registered under.
  - Archetype: The columns of every entity sharing one Signature.
  - Query: A Has/Not/Any Mask plus the live set of archetypes matching it.
  - Stream: Typed iteration over a Query, sequential (For), parallel (Job) or bulk (Raw).

Basic Usage:

	world, _ := depot.Factory.NewWorld()
	defer world.Close()

	// Define components
	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()

	// Create entities
	_ = world.Spawner().
		Add(position.Plain(), Position{}).
		Add(velocity.Plain(), Velocity{X: 1}).
		Spawn(100)

	// Query entities and process them
	query := world.Query().Has(position.Plain(), velocity.Plain()).Build()
	stream := depot.NewStream2(query, position.Plain(), velocity.Plain())

	_ = stream.For(func(pos *Position, vel *Velocity) {
		pos.X += vel.X
		pos.Y += vel.Y
	})

Structural changes made while the world is locked (explicitly with Lock, or implicitly inside a
stream callback) are queued and applied in order when the outermost lock is released. Adding a
component an entity already holds, or removing one it lacks, fails at the call unless an earlier
queued operation may change that entity first; then the failure is returned by Unlock. Job
callbacks may queue changes from any worker, but cannot spawn bare entities; use a Spawner.
*/
package depot
