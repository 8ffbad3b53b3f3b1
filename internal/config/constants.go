package config

// IsTestMode indicates if the package is running under `go test`.
// Mirrors the teacher's process-wide config.IsTestMode flag. No package in
// this module reads it; the closure-based code generator keeps no naming
// pools whose counters it could reset.
var IsTestMode = false

// Default warp-timer budget, in milliseconds, filled into
// CompilerOptions.WarpTimerMillis. The loop lowerings do not read it: warp-mode
// loops have no "stuck" check and never yield (see yieldIfNotWarp).
const DefaultWarpTimerMillis = 500

// Maximum number of setup bindings a single factory may allocate (named after
// the teacher's 256-local-variable ceiling in compiler_scope.go). The
// closure-based code generator allocates no setup bindings and does not read
// this limit.
const MaxSetupBindings = 4096

// Built-in helper function names the generated closures call into (§4.6).
// Centralized here, as the teacher centralizes built-in names in config, so
// codegen and runtimeval cannot drift on spelling.
const (
	HelperToBoolean        = "toBoolean"
	HelperMod               = "mod"
	HelperRandomInt         = "randomInt"
	HelperRandomFloat       = "randomFloat"
	HelperListGet           = "listGet"
	HelperListDelete        = "listDelete"
	HelperListInsert        = "listInsert"
	HelperListReplace       = "listReplace"
	HelperListContains      = "listContains"
	HelperListIndexOf       = "listIndexOf"
	HelperListContents      = "listContents"
	HelperCompareEqual      = "compareEqual"
	HelperCompareLessThan   = "compareLessThan"
	HelperCompareGreater    = "compareGreaterThan"
	HelperTimer             = "timer"
	HelperLimitPrecision    = "limitPrecision"
	HelperColorToList       = "colorToList"
	HelperDistance          = "distance"
	HelperDaysSince2000     = "daysSince2000"
	HelperStartHats         = "startHats"
	HelperWaitThreads       = "waitThreads"
	HelperExecCompatLayer   = "executeInCompatibilityLayer"
	HelperRetire            = "retire"
	HelperIsStuck           = "isStuck"
	HelperTan               = "tan"
)
