// Package build walks the requirement graph reachable from a root
// requirement, populating the candidate caches and emitting SAT
// clauses for dependencies, command requirements, self-bindings,
// machine-architecture groups, and replacement conflicts. It plays the
// same role that getPackageInstallables/getBundleInstallables play for
// operator dependency graphs, adapted from "build a flat list of
// solve.Installable and hand them to an opaque solver" to "populate a
// sat.Engine directly, incrementally, keyed by two candidate caches".
package build

import "fmt"

// VarLabel is the closed set of payloads attached to SAT variables:
// which implementation, command, machine group, or auxiliary
// interface-usage flag a literal stands for. Modeled as a sealed
// interface with an unexported marker method, following the same
// small-variable-kind pattern used throughout this codebase.
type VarLabel interface {
	fmt.Stringer
	isVarLabel()
}
