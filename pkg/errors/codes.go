package errors

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the configuration file could not be parsed.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	// Thresholds out of range, unknown provider names, negative counts.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigReadFailed indicates the config file exists but could not be read.
	ErrConfigReadFailed = "CONFIG_READ_FAILED"

	// ErrConfigWriteFailed indicates the config file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Input Shape Error Codes
// -----------------------------------------------------------------------------
// Fatal: graph analysis aborts and the caller gets the error.

const (
	// ErrGraphNil indicates Analyze was called without a graph.
	ErrGraphNil = "GRAPH_NIL"

	// ErrMoveInvalid indicates a move failed validation (e.g. empty text).
	ErrMoveInvalid = "MOVE_INVALID"

	// ErrEmbeddingMissing indicates a move has no embedding and no
	// pre-computed link matrix was supplied.
	ErrEmbeddingMissing = "EMBEDDING_MISSING"

	// ErrEmbeddingDimensionMismatch indicates an embedding length differs from
	// the configured (or inferred) dimension.
	ErrEmbeddingDimensionMismatch = "EMBEDDING_DIMENSION_MISMATCH"

	// ErrVectorDimensionMismatch indicates two vectors of different length
	// were combined.
	ErrVectorDimensionMismatch = "VECTOR_DIMENSION_MISMATCH"

	// ErrVectorEmpty indicates an empty vector was passed to a vector operation.
	ErrVectorEmpty = "VECTOR_EMPTY"

	// ErrLinksIncomplete indicates a supplied link matrix is missing entries
	// or does not cover every move.
	ErrLinksIncomplete = "LINKS_INCOMPLETE"

	// ErrLinksInvalid indicates a supplied link matrix holds forward or self
	// references, or unparseable indexes.
	ErrLinksInvalid = "LINKS_INVALID"

	// ErrLinkIndexOutOfRange indicates a link lookup outside the matrix bounds.
	ErrLinkIndexOutOfRange = "LINK_INDEX_OUT_OF_RANGE"
)

// -----------------------------------------------------------------------------
// Numeric Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrVectorZeroMagnitude indicates cosine similarity was requested for a
	// zero vector.
	ErrVectorZeroMagnitude = "VECTOR_ZERO_MAGNITUDE"

	// ErrEmbeddingZeroMagnitude indicates a move embedding is the zero vector
	// and strict zero-vector handling is enabled.
	ErrEmbeddingZeroMagnitude = "EMBEDDING_ZERO_MAGNITUDE"

	// ErrScoreOutOfRange indicates a similarity score is NaN or outside [-1, 1].
	ErrScoreOutOfRange = "SCORE_OUT_OF_RANGE"
)

// -----------------------------------------------------------------------------
// Embedding Provider Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrProviderNotFound indicates the requested provider is not registered.
	ErrProviderNotFound = "PROVIDER_NOT_FOUND"

	// ErrProviderAlreadyRegistered indicates a provider name is taken.
	ErrProviderAlreadyRegistered = "PROVIDER_ALREADY_REGISTERED"

	// ErrProviderNotConfigured indicates embedding was requested but no
	// provider is configured.
	ErrProviderNotConfigured = "PROVIDER_NOT_CONFIGURED"

	// ErrProviderRequestFailed indicates the provider request failed.
	ErrProviderRequestFailed = "PROVIDER_REQUEST_FAILED"

	// ErrProviderBadResponse indicates the provider answered with an
	// unexpected payload (wrong vector count, unparseable body).
	ErrProviderBadResponse = "PROVIDER_BAD_RESPONSE"
)

// -----------------------------------------------------------------------------
// Session Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrSessionReadFailed indicates the session file could not be read.
	ErrSessionReadFailed = "SESSION_READ_FAILED"

	// ErrSessionParseFailed indicates the session file is not valid JSON of
	// the expected shape.
	ErrSessionParseFailed = "SESSION_PARSE_FAILED"

	// ErrSessionInvalid indicates the session decoded but its content is invalid.
	ErrSessionInvalid = "SESSION_INVALID"

	// ErrSessionWriteFailed indicates the session file could not be written.
	ErrSessionWriteFailed = "SESSION_WRITE_FAILED"

	// ErrEpisodeNotFound indicates an unknown episode ID.
	ErrEpisodeNotFound = "EPISODE_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// Command Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrCommandNotFound indicates the command does not exist.
	ErrCommandNotFound = "COMMAND_NOT_FOUND"

	// ErrCommandMissingArgs indicates required arguments are missing.
	ErrCommandMissingArgs = "COMMAND_MISSING_ARGS"

	// ErrCommandInvalidArg indicates an argument value is invalid.
	ErrCommandInvalidArg = "COMMAND_INVALID_ARG"
)

// -----------------------------------------------------------------------------
// IO and Internal Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrExportFailed indicates writing an export (CSV, JSON report) failed.
	ErrExportFailed = "EXPORT_FAILED"

	// ErrAnalysisCanceled indicates a batch analysis was canceled via context.
	ErrAnalysisCanceled = "ANALYSIS_CANCELED"

	// ErrInternal is the catch-all for unexpected states.
	ErrInternal = "INTERNAL_ERROR"
)
