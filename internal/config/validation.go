package config

import (
	"fmt"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	if c.Agent.MaxIterations < 1 {
		errs = append(errs, "agent.max_iterations must be >= 1")
	}
	if c.Agent.HistoryCap < 2 {
		errs = append(errs, "agent.history_cap must be >= 2")
	}
	if c.Agent.CallTimeoutSeconds < 1 {
		errs = append(errs, "agent.call_timeout_seconds must be >= 1")
	}

	if c.Gate.ConfirmTTLSeconds < 1 {
		errs = append(errs, "gate.confirm_ttl_seconds must be >= 1")
	}

	if c.Router.MaxToolResultSize < 1 {
		errs = append(errs, "router.max_tool_result_size must be >= 1")
	}
	if c.Router.TruncatedSize < 1 {
		errs = append(errs, "router.truncated_size must be >= 1")
	}
	if c.Router.TruncatedSize > c.Router.MaxToolResultSize {
		errs = append(errs, "router.truncated_size must be <= router.max_tool_result_size")
	}
	if c.Router.ArgsPreviewSize < 1 {
		errs = append(errs, "router.args_preview_size must be >= 1")
	}
	if c.Router.CallTimeoutSeconds < 1 {
		errs = append(errs, "router.call_timeout_seconds must be >= 1")
	}

	if c.Channel.MessageLimit < 1 {
		errs = append(errs, "channel.message_limit must be >= 1")
	}
	if c.Channel.ChunkSize < 1 {
		errs = append(errs, "channel.chunk_size must be >= 1")
	}
	if c.Channel.ChunkSize > c.Channel.MessageLimit {
		errs = append(errs, "channel.chunk_size must be <= channel.message_limit")
	}

	switch c.Provider.Backend {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Sprintf("provider.backend must be \"gemini\" or \"openai\", got %q", c.Provider.Backend))
	}

	if c.Storage.MemoryPath == "" {
		errs = append(errs, "storage.memory_path must not be empty")
	}

	if len(c.Targets) == 0 {
		errs = append(errs, "targets must contain at least one entry")
	}
	seen := make(map[string]bool)
	for i, t := range c.Targets {
		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("targets[%d].name must not be empty", i))
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Sprintf("targets[%d].name %q is duplicated", i, t.Name))
		}
		seen[t.Name] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
