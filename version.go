package satchel

// Version is the release of the library, overridden at build time with
// -ldflags "-X github.com/aretw0/satchel.Version=...".
var Version = "dev"
