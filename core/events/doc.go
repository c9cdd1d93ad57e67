// Package events defines the typed navigation event contract.
//
// Every event is either user initiated (a button press, a shake gesture) or
// state changed (a new location, a behavior starting). Two flags decide how
// the behavior chain delivers it:
//
//   - Distribution: consumed events stop at the first generator that handles
//     them, broadcast events reach every generator that responds to them.
//   - Blockable: blockable events skip generators that a behavior in the
//     chain has blocked, e.g. ambient callouts while guidance is close to a
//     waypoint.
//
// Event kinds are namespaced by the component that owns them:
//
//   - location.* (LocationUpdated): broadcast, blockable.
//   - behavior.* (BehaviorActivated, BehaviorDeactivated): consumed.
//   - user.* (Locate, Glyph, Hush): user initiated.
//   - tour.* and route.*: waypoint arrival and departure, and guidance.*:
//     manual waypoint navigation, defined in package guidance.
//   - preview.*: street preview events, defined in package preview.
package events
