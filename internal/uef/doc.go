// Package uef defines the wire vocabulary of the UEF host message protocol.
//
// Every message is a flat JSON record with a "type" discriminator and
// type-specific fields. The discriminator strings and field names are fixed
// by the host platform contract and must round-trip byte-for-byte; nothing
// in this package is an internal design choice.
//
// The protocol is asymmetric in how replies are matched:
//
//   - portal and help-invocation traffic is correlation-keyed: the client
//     generates a correlationId and the host echoes it back,
//   - registration and authorization replies are type-keyed: the host
//     answers with a record of the same type carrying a status field.
//
// Decode never fails on an unrecognized discriminator; unknown records are
// returned as *Unknown so the dispatch layer can ignore them.
package uef
