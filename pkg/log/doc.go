// Package log defines the structured logging abstraction used throughout
// labelpress. The dispatch controller and transport adapters emit events
// through the Logger interface; binaries wire it to zerolog, libraries
// embedding labelpress may supply their own implementation or the no-op.
package log
