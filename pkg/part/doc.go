// Package part models the host part an assembly lives on.
//
// The engine does not own meshes, physics or the editor. It talks to the host
// through this package:
//
//   - [AttachNode] values for stack, body, interstage and surface attachment,
//     each optionally holding an attached [Child]
//   - a flat [Transform] tree the segments write scale and position into
//   - [SelectableNode] toggles that create or destroy a node on demand
//   - [Fairing] modules updated with [FairingUpdate] values
//   - an [Events] sink for outbound notifications
//
// [Part] keeps all of this in memory so the engine can be driven and inspected
// without a host. [Recorder] captures events for tests and the CLI.
package part
