//go:build !windows

package engine

// denyPatterns is the fixed deny-list: entries that are unsafe or
// meaningless to copy regardless of user exclusions. Not configurable.
var denyPatterns = []string{
	"swapfile",
	"swap.img",
	"lost+found",
}
