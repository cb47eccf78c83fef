// Copyright (C) 2025 Brigham Skarda

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package atomicfile writes a destination file via a sibling temp file,
// fsync, and atomic rename, per pgnforge's "destination is never
// half-written" discipline.
package atomicfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/brighamskarda/pgnforge/internal/pgnerr"
)

// Writer accumulates bytes for dest into a sibling temp file, named
// ".<destname>.<uuid>.tmp", and exposes it for atomic publication via
// Commit. Abort removes the temp file without touching dest.
type Writer struct {
	dest    string
	tmpPath string
	f       *os.File
}

// New creates the temp file sibling of dest and opens it for writing.
func New(dest string) (*Writer, error) {
	dir := filepath.Dir(dest)
	name := filepath.Base(dest)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", name, uuid.NewString()))
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("atomicfile: could not create temp file: %w", err)
	}
	return &Writer{dest: dest, tmpPath: tmpPath, f: f}, nil
}

// File exposes the underlying temp file for writing.
func (w *Writer) File() *os.File {
	return w.f
}

// Commit fsyncs the temp file, closes it, and atomically renames it onto
// dest. If dest is locked by another process, Commit retries with backoff
// and returns pgnerr.ErrTargetLocked once the budget is exhausted.
func (w *Writer) Commit(ctx context.Context) error {
	if err := w.f.Sync(); err != nil {
		w.Abort()
		return fmt.Errorf("atomicfile: fsync failed: %w", err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("atomicfile: close failed: %w", err)
	}

	lock := flock.New(w.dest + ".lock")
	locked, err := lock.TryLock()
	if err == nil && locked {
		defer lock.Unlock()
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = RetryDelay
	b := backoff.WithContext(backoff.WithMaxRetries(eb, 5), ctx)
	renameErr := backoff.Retry(func() error {
		err := os.Rename(w.tmpPath, w.dest)
		if err != nil && !os.IsPermission(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if renameErr != nil {
		os.Remove(w.tmpPath)
		if os.IsPermission(renameErr) {
			return fmt.Errorf("%w: %v", pgnerr.ErrTargetLocked, renameErr)
		}
		return fmt.Errorf("atomicfile: rename failed: %w", renameErr)
	}
	return nil
}

// Abort discards the temp file without touching dest.
func (w *Writer) Abort() error {
	w.f.Close()
	return os.Remove(w.tmpPath)
}

// RetryDelay is the base delay used when retrying a locked rename, exposed
// for tests that need a faster schedule than the production default.
var RetryDelay = 50 * time.Millisecond
