// Package logger provides leveled, colorized logging for the CLI and the
// vault internals. Info and debug output is opt-in via flags; warnings and
// errors always print to stderr.
package logger
