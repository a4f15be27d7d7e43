// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "fmt"

// InodeKind is the directory-type field packed into a handler-namespace
// inode, see spec.md §6 ("Inode encoding").
type InodeKind uint32

const (
	// InodeRoot identifies "/".
	InodeRoot InodeKind = iota + 1
	// InodeElementDir identifies "/<element>/".
	InodeElementDir
	// InodeHandlerFile identifies "/<element>/<handler>".
	InodeHandlerFile
	// InodeElementNumberDir identifies "/.e/<eindex>/".
	InodeElementNumberDir
	// InodeGlobalHandlerFile identifies "/.h/<handler>".
	InodeGlobalHandlerFile
)

const (
	inodeKindShift = 28
	inodeKindMask  = 0xF << inodeKindShift
	inodeIndexMask = (1 << inodeKindShift) - 1
	inodeSubShift  = 14
	inodeSubMask   = (1 << inodeSubShift) - 1
)

// Inode packs (kind, element index, handler index) into the 32-bit
// integer spec.md §6 describes ("a 32-bit integer partitions the
// space"). Inode 0 is reserved and never returned by [EncodeInode].
type Inode uint32

// EncodeInode packs kind, eindex, and hindex into one inode. eindex and
// hindex are each limited to 14 bits (16384 elements/handlers), which
// comfortably covers any router built by this package's linker.
func EncodeInode(kind InodeKind, eindex, hindex int) Inode {
	e := uint32(eindex+1) & inodeSubMask // +1 so element 0 doesn't collide with "absent"
	h := uint32(hindex+1) & inodeSubMask
	return Inode(uint32(kind)<<inodeKindShift | e<<14 | h)
}

// Decode unpacks an inode back into its kind, element index, and
// handler index (-1 where not applicable).
func (ino Inode) Decode() (kind InodeKind, eindex, hindex int) {
	kind = InodeKind(uint32(ino) >> inodeKindShift & 0xF)
	e := uint32(ino) >> 14 & inodeSubMask
	h := uint32(ino) & inodeSubMask
	return kind, int(e) - 1, int(h) - 1
}

// HandlerFS is the hierarchical, filesystem-like view over a router's
// elements and handlers spec.md §6 describes. Its generation counter
// invalidates cached directory listings across a live reconfigure.
type HandlerFS struct {
	router     *Router
	generation uint64
}

// NewHandlerFS returns a filesystem view bound to router's current
// generation.
func NewHandlerFS(router *Router) *HandlerFS {
	return &HandlerFS{router: router, generation: router.generation}
}

// Generation returns the generation this view was built against; a
// caller should discard and recreate its [*HandlerFS] when this no
// longer matches the router's current generation.
func (fs *HandlerFS) Generation() uint64 { return fs.generation }

// Stale reports whether the router has live-reconfigured since this
// view was created.
func (fs *HandlerFS) Stale() bool { return fs.generation != fs.router.generation }

// Root lists every top-level entry: one per element plus the "/.e" and
// "/.h" mirror directories.
func (fs *HandlerFS) Root() []string {
	names := make([]string, 0, len(fs.router.Elements)+2)
	for _, e := range fs.router.Elements {
		names = append(names, e.Name)
	}
	return append(names, ".e", ".h")
}

// ElementDir lists every handler name exposed by the named element.
func (fs *HandlerFS) ElementDir(name string) ([]string, error) {
	e, ok := fs.router.ElementByName(name)
	if !ok {
		return nil, fmt.Errorf("no such element: %s", name)
	}
	return fs.handlerNames(e.Eindex), nil
}

// ElementNumberDir is the "/.e/<eindex>/" mirror of [HandlerFS.ElementDir].
func (fs *HandlerFS) ElementNumberDir(eindex int) ([]string, error) {
	if eindex < 0 || eindex >= len(fs.router.Elements) {
		return nil, fmt.Errorf("no such element index: %d", eindex)
	}
	return fs.handlerNames(eindex), nil
}

// GlobalDir lists every router-wide handler under "/.h/".
func (fs *HandlerFS) GlobalDir() []string {
	return fs.handlerNames(GlobalEindex)
}

func (fs *HandlerFS) handlerNames(eindex int) []string {
	var names []string
	for _, h := range fs.router.handlers.handlers {
		if h.Eindex == eindex {
			names = append(names, h.Name)
		}
	}
	return names
}

// Inode returns the stable inode for (element, handler), encoding the
// appropriate [InodeKind] for a per-element handler file.
func (fs *HandlerFS) Inode(eindex int, h *Handler) Inode {
	if eindex == GlobalEindex {
		return EncodeInode(InodeGlobalHandlerFile, GlobalEindex, h.Hindex)
	}
	return EncodeInode(InodeHandlerFile, eindex, h.Hindex)
}
