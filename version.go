package viewhost

// Version is the library version, overridden at build time with
// -ldflags "-X github.com/aretw0/viewhost.Version=...".
var Version = "0.1.0-dev"
