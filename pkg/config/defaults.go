package config

// Coverage defaults.
const (
	DefaultFileTag         = "-"
	DefaultMaxFileSize     = "1MB"
	DefaultFailOnUncovered = false
	DefaultParseCacheSize  = "16MiB"
	DefaultLanguageCheck   = false
)

// Output defaults.
const (
	DefaultOutputFormat = FormatText
	DefaultOutputColor  = true
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 1.0
)
