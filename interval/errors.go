package interval

import (
	"github.com/pkg/errors"

	"github.com/grailbio/ivmap"
)

// errIdNotFound wraps the shared sentinel with the composition-layer id
// that triggered it, mirroring isetmap's and ilistmap's own error wrapping.
func errIdNotFound(id uint32) error {
	return errors.Wrapf(ivmap.ErrIdNotFound, "interval: id %d", id)
}
