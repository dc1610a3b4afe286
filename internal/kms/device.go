package kms

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultDRIDir is where the kernel exposes DRM card nodes
const DefaultDRIDir = "/dev/dri"

// DevicePath returns the card node path for a DRI index
func DevicePath(dir string, index uint) string {
	return filepath.Join(dir, fmt.Sprintf("card%d", index))
}

// Open opens the card node at path for exclusive read/write use
func Open(path string) (*Card, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w%s", ErrOpen, path, err, openHint(err))
	}
	return &Card{file: os.NewFile(uintptr(fd), path), path: path}, nil
}

// OpenDriver is an Opener backed by Open
func OpenDriver(path string) (Driver, error) {
	card, err := Open(path)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func openHint(err error) string {
	switch {
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return " (is the user in the video group?)"
	case errors.Is(err, unix.EBUSY):
		return " (device is held by another process)"
	}
	return ""
}
