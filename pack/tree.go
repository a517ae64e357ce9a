package pack

import "strings"

// NodeKind discriminates a FileTreeNode's payload. It is a closed sum
// type over {folder, file leaf} by design — see DESIGN.md's note on
// tagged variants over inheritance — rather than an interface hierarchy,
// since the discriminant has no on-disk representation to preserve here
// (unlike the skeleton attachment variants) but the same shape fits.
type NodeKind int

const (
	NodeFolder NodeKind = iota
	NodeFile
)

// FileTreeNode is either a folder (Children populated, Kind == NodeFolder)
// or a file leaf (Offset/Size/Ext populated, Kind == NodeFile). Nodes are
// created once during Scan and never mutated afterward.
type FileTreeNode struct {
	Name     string
	Path     string // fully-qualified path; empty for the synthetic root
	Kind     NodeKind
	Children []*FileTreeNode // folders only, in encounter order

	// Leaf-only fields.
	Offset uint64 // absolute offset of the payload within the pack
	Size   uint64
	Ext    string // lowercase suffix after the last '.', without the dot
}

func newFolder(name, path string) *FileTreeNode {
	return &FileTreeNode{Name: name, Path: path, Kind: NodeFolder}
}

// addFileToTree splits path on '/', creating intermediate folders as
// needed (preserving insertion order), and appends a new file leaf as the
// final segment. Duplicate names are appended verbatim — this is a
// reconstructed view of the pack, not a deduplicating filesystem.
func (a *Archive) addFileToTree(path string, offset, size uint64) {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return
	}

	current := a.root
	currentPath := ""
	for _, part := range segments[:len(segments)-1] {
		currentPath += part + "/"

		var next *FileTreeNode
		for _, c := range current.Children {
			if c.Kind == NodeFolder && c.Name == part {
				next = c
				break
			}
		}
		if next == nil {
			next = newFolder(part, currentPath)
			current.Children = append(current.Children, next)
			a.index.Insert([]byte(currentPath), next)
		}
		current = next
	}

	name := segments[len(segments)-1]
	leaf := &FileTreeNode{
		Name:   name,
		Path:   path,
		Kind:   NodeFile,
		Offset: offset,
		Size:   size,
		Ext:    extensionOf(name),
	}
	current.Children = append(current.Children, leaf)
	a.index.Insert([]byte(path), leaf)
}

func extensionOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
