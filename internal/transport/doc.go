// Package transport carries UEF wire records between the client and the
// host shell.
//
// Two surfaces exist, mirroring the host platform's model:
//
//   - the public Surface, used only for the opening hello and the host's
//     handshake reply,
//   - the private Port granted by that reply, used for all subsequent
//     protocol traffic.
//
// Two implementations are provided: a websocket transport for a real shell
// gateway, and an in-memory pipe used by tests and the host simulator.
package transport
