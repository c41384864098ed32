package protocol

import "time"

// Config holds transport-independent connection settings.
type Config struct {
	// Frame settings
	Compression  string `yaml:"compression"`
	MaxFrameSize uint32 `yaml:"max_frame_size"`

	// Inbound buffering
	InboxSize    int `yaml:"inbox_size"`
	MaxBatchSize int `yaml:"max_batch_size"`

	// Timeouts
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`

	// Validate command request payloads against their JSON schemas before routing.
	ValidatePayloads bool `yaml:"validate_payloads"`
}

// DefaultConfig returns default connection configuration
func DefaultConfig() Config {
	return Config{
		Compression:      "none",
		MaxFrameSize:     1024 * 1024, // 1MB
		InboxSize:        4096,
		MaxBatchSize:     1024,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		ValidatePayloads: true,
	}
}
