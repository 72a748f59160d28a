package update

import (
	"fmt"
	"io"
)

// Marker names form the stable machine-readable contract with the launcher.
// Everything else this tool prints is free-form and may change.
const (
	MarkerPreUpdateHead  = "PRE_UPDATE_HEAD"
	MarkerBackupBranch   = "BACKUP_BRANCH"
	MarkerCheckedOutTag  = "CHECKED_OUT_TAG"
	MarkerPostUpdateHead = "POST_UPDATE_HEAD"
)

// Emitter writes structured progress markers, one line per milestone, in the
// fixed form "[NAME] value". Lines are written synchronously the moment the
// milestone occurs so a consumer can parse progress incrementally.
type Emitter struct {
	w io.Writer
}

// NewEmitter returns an Emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes one marker line.
func (e *Emitter) Emit(marker, value string) {
	fmt.Fprintf(e.w, "[%s] %s\n", marker, value)
}
