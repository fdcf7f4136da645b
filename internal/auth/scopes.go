package auth

// Scopes understood by the workload API. Writers may also read.
const (
	ScopeWorkloadWrite = "workload:write"
	ScopeWorkloadRead  = "workload:read"
)
