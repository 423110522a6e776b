package appfs

import "embed"

// FS holds the portal templates, static assets and the session store migrations.
// Email layouts start with an underscore, hence "all:".
//
//go:embed all:assets migrations
var FS embed.FS
