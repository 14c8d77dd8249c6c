// Package assets embeds the robot description files shipped with the
// module, so scenarios can refer to them by relative path regardless of
// the working directory.
package assets

import "embed"

// FS holds the xmls/ tree
//
//go:embed xmls
var FS embed.FS
