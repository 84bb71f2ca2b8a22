// Package msgs provides L1 protocol support and all message schemas.
//
// Every message travels in a Typed envelope. The type ID tells the kind
// (command or event), the group and whether a command is a reply.
// Commands of GroupBase drive the wheels of a RoboClaw base and the
// Telemetry event carries every reading of the poll loop.
package msgs
