package relocate

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

const sharedMode os.FileMode = 0o666

// Local relocates with direct filesystem calls under the current user.
// The zero value is ready to use.
type Local struct {
	// rename and copy replace os.Rename and io.Copy when set.
	rename func(oldpath, newpath string) error
	copy   func(dst io.Writer, src io.Reader) (int64, error)
}

// CopyIn implements Relocator.
func (l Local) CopyIn(ctx context.Context, src, dst string) Status {
	if err := ctx.Err(); err != nil {
		return Failure("%v", err)
	}

	if err := l.copyFile(src, dst); err != nil {
		return Failure("copy %s: %v", src, err)
	}

	if err := os.Chmod(dst, sharedMode); err != nil {
		return Failure("chmod %s: %v", dst, err)
	}

	return ""
}

// MoveOut implements Relocator. Renames across filesystems fall back to a
// copy next to dst that is renamed over it, so dst is either replaced
// completely or left alone.
func (l Local) MoveOut(ctx context.Context, src, dst string) Status {
	if err := ctx.Err(); err != nil {
		return Failure("%v", err)
	}

	rename := l.rename
	if rename == nil {
		rename = os.Rename
	}

	err := rename(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		if err = l.replace(src, dst); err == nil {
			err = os.Remove(src)
		}
	}

	if err != nil {
		return Failure("move %s: %v", src, err)
	}

	if err := os.Chmod(dst, sharedMode); err != nil {
		return Failure("chmod %s: %v", dst, err)
	}

	return ""
}

// replace copies src into a temporary file in dst's directory and renames
// it over dst.
func (l Local) replace(src, dst string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".relocate-*"+filepath.Ext(dst))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := l.copyTo(tmp, src); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), sharedMode); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dst)
}

func (l Local) copyFile(src, dst string) error {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, sharedMode)
	if err != nil {
		return err
	}

	if err := l.copyTo(out, src); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func (l Local) copyTo(out io.Writer, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	cp := l.copy
	if cp == nil {
		cp = io.Copy
	}

	_, err = cp(out, in)

	return err
}
