// Package appfs embeds repository assets needed at runtime.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
