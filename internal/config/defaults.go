package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Agent    AgentConfig    `json:"agent"`
	Gate     GateConfig     `json:"gate"`
	Router   RouterConfig   `json:"router"`
	Channel  ChannelConfig  `json:"channel"`
	Provider ProviderConfig `json:"provider"`
	Storage  StorageConfig  `json:"storage"`
	Logging  LoggingConfig  `json:"logging"`
	Targets  []TargetConfig `json:"targets"`
}

type AgentConfig struct {
	MaxIterations      int `json:"max_iterations"`       // Default: 8
	HistoryCap         int `json:"history_cap"`          // Default: 40
	CallTimeoutSeconds int `json:"call_timeout_seconds"` // Default: 15
}

type GateConfig struct {
	ConfirmTTLSeconds int `json:"confirm_ttl_seconds"` // Default: 300 (5 minutes)
}

type RouterConfig struct {
	MaxToolResultSize  int `json:"max_tool_result_size"` // Default: 8000
	TruncatedSize      int `json:"truncated_size"`       // Default: 7900
	ArgsPreviewSize    int `json:"args_preview_size"`    // Default: 200
	CallTimeoutSeconds int `json:"call_timeout_seconds"` // Default: 15
}

type ChannelConfig struct {
	MessageLimit int `json:"message_limit"` // Default: 4096
	ChunkSize    int `json:"chunk_size"`    // Default: 4000
}

type ProviderConfig struct {
	// Backend selects the LLM backend: "gemini" or "openai"
	Backend string `json:"backend"` // Default: "gemini"
	Model   string `json:"model"`   // Default: backend-specific
	BaseURL string `json:"base_url"`
}

type StorageConfig struct {
	// MemoryPath is the SQLite database file for the memory store.
	MemoryPath string `json:"memory_path"` // Default: "warden.db"
	// AuditPath is the SQLite database file for the audit trail.
	// Defaults to MemoryPath (shared database).
	AuditPath string `json:"audit_path"`
}

type LoggingConfig struct {
	Debug bool `json:"debug"` // Default: false
}

// TargetConfig describes one external system commands can be pointed at.
type TargetConfig struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	HealthURL     string   `json:"health_url"`
	LogPath       string   `json:"log_path"`
	ServiceUnit   string   `json:"service_unit"`
	RepoPath      string   `json:"repo_path"`
	DeployCommand []string `json:"deploy_command"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxIterations:      8,
			HistoryCap:         40,
			CallTimeoutSeconds: 15,
		},
		Gate: GateConfig{
			ConfirmTTLSeconds: 300,
		},
		Router: RouterConfig{
			MaxToolResultSize:  8000,
			TruncatedSize:      7900,
			ArgsPreviewSize:    200,
			CallTimeoutSeconds: 15,
		},
		Channel: ChannelConfig{
			MessageLimit: 4096,
			ChunkSize:    4000,
		},
		Provider: ProviderConfig{
			Backend: "gemini",
		},
		Storage: StorageConfig{
			MemoryPath: "warden.db",
		},
		Targets: []TargetConfig{
			{Name: "local", DisplayName: "Local machine"},
		},
	}
}
