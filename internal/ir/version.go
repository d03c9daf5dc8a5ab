package ir

// Version constants for the document schema and the generator.
const (
	// SchemaVersion is the command document schema version.
	SchemaVersion = "1"

	// GeneratorVersion is the trigconf generator version.
	GeneratorVersion = "0.1.0"
)
