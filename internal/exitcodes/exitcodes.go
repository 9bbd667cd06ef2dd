package exitcodes

// Exit codes for project-sweeper
// These codes form the operational contract with scripts and CI jobs
const (
	Success         = 0 // Sweep reached the completion banner
	InvalidConfig   = 2 // Configuration file invalid, or root missing
	SafetyViolation = 3 // Root is a protected system path
	RuntimeError    = 4 // Runtime error outside the sweep itself (database, metrics)
	PartialFailure  = 5 // Strict mode only: at least one deletion failed
)
