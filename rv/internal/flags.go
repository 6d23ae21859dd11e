package rvapi

// These constants gate expensive debug-only validation and logging in the
// SSA builder and register allocator. They are compile-time constants so the
// checks are eliminated entirely from optimized builds.
const (
	// SSAValidationEnabled enables the per-pass structural validation of the
	// in-progress SSA function. Should only be turned on in tests.
	SSAValidationEnabled = false

	// SSALoggingEnabled enables verbose pass-by-pass dumps of the SSA function.
	SSALoggingEnabled = false

	// RegAllocValidationEnabled enables internal consistency checks in the
	// register allocator, e.g. that graph coloring leaves no node behind and
	// gives no two interfering nodes the same register.
	RegAllocValidationEnabled = false

	// RegAllocLoggingEnabled enables verbose logging of allocator decisions.
	RegAllocLoggingEnabled = false
)
