// Package hostsim implements an in-process stand-in for the LMS host.
//
// The simulator speaks the host side of the session protocol over an
// in-memory pipe: it answers the hello with a private channel, verifies the
// bearer credential, acknowledges registrations, and opens panels. Commands
// let a caller inject the user-driven events a real host would emit, which
// makes it useful both as a development console and as a test fixture.
package hostsim
