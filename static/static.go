// Package static embeds the static assets.
package static

import "embed"

//go:embed style.css
var FS embed.FS
