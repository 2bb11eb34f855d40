// Package catalog loads and serves the device and programmer
// configuration: which AVR parts exist, their memories and fuse
// bitfield tables, and which programmers can talk to them.
//
// The catalog is a YAML document resolved through a fixed search order
// (build-local directory, /etc/avrkit, /usr/local/etc/avrkit); the
// first file found wins, there is no merging. A built-in catalog
// covering common devices is embedded in the binary; callers choose
// Load or LoadEmbedded explicitly, or Init for the process-wide
// default.
//
// Catalogs are immutable after load and safe for concurrent readers.
package catalog
