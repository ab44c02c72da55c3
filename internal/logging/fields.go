package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError = "error"

	// Grammar fields.
	FieldGrammar = "grammar"
	FieldState   = "state"
	FieldRule    = "rule"
	FieldToken   = "token"
	FieldOffset  = "offset"

	// Session fields.
	FieldLines       = "lines"
	FieldRetokenized = "retokenized"
	FieldRevalidated = "revalidated"

	// Embedded-language fields.
	FieldLanguage = "language"
)
