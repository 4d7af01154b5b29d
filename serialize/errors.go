package serialize

import "errors"

// ErrCyclicDependency is raised by Dump when a residual queue remains after
// topological emission — the nodes left over (each has a serializable
// result and every dependency's class is registered) form a cycle among
// themselves; dependencies outside that set never block emission.
var ErrCyclicDependency = errors.New("cyclic dependency detected in dump")
