// Package demo_configs 內建的示範積分工作。
package demo_configs

import (
	"embed"
)

// FS provides embedded default job YAMLs for external usage.
//
//go:embed *.yaml
var FS embed.FS
