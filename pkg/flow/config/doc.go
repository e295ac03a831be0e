// Package config loads pipeline settings from JSON, strictly: unknown fields
// are an error. Load starts from Defaults, EnvOverlay and Merge layer
// BATCHRAIL_* environment variables on top, and Validate reports every
// invalid field at once.
//
// Example:
//
//	{
//	  "batch_size": 64,
//	  "channel_capacity": 8,
//	  "stop_grace": "250ms",
//	  "stages": {"embed": {"batch_size": 16}},
//	  "logging": {"level": "debug", "format": "console"}
//	}
package config
