package cerr

import (
	"errors"
	"fmt"

	"github.com/kev1903/skrobakios/pkg/storage"
)

// Storage failures surface to clients as not_found or as an opaque internal
// error. The storage cause stays on the error for logging.

func WrapStorageReadError(target string, err error) error {
	return wrapStorage("read", target, err)
}

func WrapStorageWriteError(target string, err error) error {
	return wrapStorage("write", target, err)
}

func WrapStorageDeleteError(target string, err error) error {
	return wrapStorage("delete", target, err)
}

func wrapStorage(op, target string, err error) error {
	if op != "write" && errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, target+" not found", err)
	}
	return NewError(Internal, "storage unavailable", fmt.Errorf("%s %s: %w", op, target, err))
}
