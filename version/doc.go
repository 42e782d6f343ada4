// Package version reports the networkable build version, taken from linker
// flags when set and from the embedded module build info otherwise. The
// session uses UserAgent as its default User-Agent header.
package version
