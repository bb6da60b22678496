package telemetry

// Config holds OpenTelemetry tracing configuration for an AS-exchange client.
type Config struct {
	// Enabled indicates whether tracing is enabled.
	Enabled bool

	// ServiceName is reported to the trace backend.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Endpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	Endpoint string

	// Insecure indicates whether to use a plaintext gRPC connection.
	Insecure bool

	// SampleRate is the trace sampling rate, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns tracing disabled, matching a library's default of
// not talking to the network unless a caller opts in.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "kerbeiros",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
