package version

// VERSION is overwritten at build time with
// -ldflags "-X github.com/glitchfx/glitch-cli/version.VERSION=...".
var VERSION = "development"
