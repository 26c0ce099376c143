package csvasset

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Import completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or request
	ExitStoreUnavailable = 11 // Failed to open or connect to the content store
	ExitLoadError        = 12 // CSV file missing, unreadable or empty
	ExitCommitError      = 13 // Store commit failed
	ExitUnknownType      = 14 // Record type is not registered
)

const (
	// DefaultSaveFolder is the folder records are written to when none is configured.
	DefaultSaveFolder = "Assets/ScriptableObjects"

	// DefaultIdentityTemplate names each record after its type and the name column.
	DefaultIdentityTemplate = "{type}_{column}"

	// DefaultNameColumn is the column used for the {column} placeholder.
	DefaultNameColumn = 0

	// UnnamedColumnValue replaces {column} when the row has no cell at the name column.
	UnnamedColumnValue = "Unnamed"

	// RecordExtension is appended to every computed identity to form its location.
	RecordExtension = ".asset"

	// Delimiter separates cells. Quoting and escaping are not supported.
	Delimiter = ","
)

// Identity template placeholders.
const (
	PlaceholderType   = "{type}"
	PlaceholderIndex  = "{index}"
	PlaceholderColumn = "{column}"
	PlaceholderGUID   = "{guid}"
)
