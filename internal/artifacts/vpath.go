package artifacts

import "strings"

// VirtualPathSeparator joins the segments of a virtual path.
const VirtualPathSeparator = "/"

// JoinVirtual appends an archive member name to the virtual path of its
// enclosing archive.
// Example: JoinVirtual("backup.zip", "./logs/app.log") -> "backup.zip/logs/app.log"
func JoinVirtual(parent, member string) string {
	member = strings.ReplaceAll(member, "\\", VirtualPathSeparator)
	for strings.HasPrefix(member, "./") {
		member = member[2:]
	}
	member = strings.TrimLeft(member, VirtualPathSeparator)
	if parent == "" {
		return member
	}
	if member == "" {
		return parent
	}
	return parent + VirtualPathSeparator + member
}
