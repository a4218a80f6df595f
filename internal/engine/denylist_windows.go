//go:build windows

package engine

// denyPatterns is the fixed deny-list: in-use paging/hibernation files and
// OS-reserved folders that are unsafe or meaningless to copy. Not
// configurable.
var denyPatterns = []string{
	"hiberfil.sys",
	"pagefile.sys",
	"swapfile.sys",
	"System Volume Information",
	"$Recycle.Bin",
}
