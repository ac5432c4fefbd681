// Package structs implements helpers to generalize vectors of structs and pools of buffers.
package structs

// CopyNewer is implemented by objects that can return a deep copy of themselves.
type CopyNewer[V any] interface {
	CopyNew() *V
}

// Equatable is implemented by objects that can be compared for deep equality.
type Equatable[T any] interface {
	Equal(*T) bool
}
