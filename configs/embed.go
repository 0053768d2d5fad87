// Package configs provides the embedded configuration template for oale.
//
// The template is embedded at build time so it is available in every
// distribution. `oale config init` writes it next to the corpus as a
// starting point.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `oale config init`.
//
//go:embed oale.example.yaml
var ConfigTemplate string
