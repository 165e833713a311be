// Package domain contains the core types and errors shared across labelpress:
// label geometry specs, print content requests, print jobs, and the error
// taxonomy for configuration, content, and transport failures.
package domain
