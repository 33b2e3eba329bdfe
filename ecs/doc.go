// Package ecs bridges flowscene hover events into an ECS world.
//
// [NewDonburiStore] publishes every hover enter and exit as a typed
// [Donburi] event and keeps a singleton [Hover] component current, so ECS
// systems can either subscribe to [InteractionEventType] or read the hover
// target directly.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	player.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
