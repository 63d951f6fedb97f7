// Package registry implements the Asset Registry collaborator.
//
// The registry owns asset identity: minting, custody, per-token approvals and
// metadata URIs. The marketplace consumes it through the Registry interface;
// InMemory is the deterministic in-process implementation used by the engine
// and its tests.
package registry
