// Package engine contains the core search logic for logsearch. It validates
// a Config, enumerates candidate files, hands each one to the artifacts
// reader and reports matching lines. This package is internal; external
// consumers should use the stable facade in pkg/core.
package engine
