package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable unique id, used for object-storage keys.
func New() string {
	return ksuid.New().String()
}
