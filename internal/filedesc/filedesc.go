// Package filedesc defines FileDescriptor, the unit of work that flows
// from the Coordinator's enumeration step through the global queue,
// across the fabric, and into a Worker's local queue.
package filedesc

import "github.com/chadmiller/fsch/internal/fabric"

// FileDescriptor describes one input file: its full path, its size in
// bytes, and the priority assigned at enumeration time. It implements
// pqueue.Item (Priority/ByteSize) so pqueue.Queue[FileDescriptor] backs
// both the Coordinator's global queue and each Worker's local queue.
type FileDescriptor struct {
	Path string
	Size int64
	Prio int
}

func (f FileDescriptor) Priority() int   { return f.Prio }
func (f FileDescriptor) ByteSize() int64 { return f.Size }

// ToAssignment converts a descriptor into the fabric message the
// Coordinator sends a worker rank.
func (f FileDescriptor) ToAssignment() fabric.Assignment {
	return fabric.Assignment{Path: f.Path, Size: f.Size, Priority: f.Prio}
}

// FromAssignment converts a received fabric assignment back into a
// FileDescriptor, the form a Worker's local queue stores.
func FromAssignment(a fabric.Assignment) FileDescriptor {
	return FileDescriptor{Path: a.Path, Size: a.Size, Prio: a.Priority}
}
