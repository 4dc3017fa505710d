// Package cleaner deletes scan matches and records each session.
package cleaner

import (
	"fmt"
	"os"

	"github.com/fenilsonani/devcache/internal/logging"
	"github.com/fenilsonani/devcache/internal/scanner"
	"github.com/fenilsonani/devcache/internal/security"
	"github.com/fenilsonani/devcache/pkg/utils"
)

// Confirmer asks the user whether to delete count items totalling size bytes
type Confirmer interface {
	Confirm(count int, size int64) (bool, error)
}

// Recorder persists one session summary
type Recorder interface {
	Record(path string, size int64, items int, dryRun bool) error
}

// Remover deletes a single filesystem entry
type Remover interface {
	Remove(path string, isDir bool) error
}

// Mode selects between a dry run and a real deletion
type Mode struct {
	DryRun      bool
	SkipConfirm bool
}

// CleanResult represents the result of a clean operation
type CleanResult struct {
	Total        int
	DeletedCount int
	FreedBytes   int64
	WouldFree    int64
	DryRun       bool
	Declined     bool
	Recorded     bool
	DeletedPaths []string
	Errors       []*DeletionError
}

// osRemover removes directories recursively and everything else directly.
// Symlinks are removed themselves, never their targets.
type osRemover struct{}

func (osRemover) Remove(path string, isDir bool) error {
	if isDir {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// Cleaner handles match deletion with safeguards
type Cleaner struct {
	recorder      Recorder
	confirmer     Confirmer
	remover       Remover
	pathValidator *security.PathValidator
	logger        *logging.Logger
}

// New creates a Cleaner that records sessions to recorder. A nil recorder
// disables recording.
func New(recorder Recorder, logger *logging.Logger) *Cleaner {
	return &Cleaner{
		recorder:      recorder,
		remover:       osRemover{},
		pathValidator: security.NewPathValidator(),
		logger:        logger,
	}
}

// SetConfirmer sets the prompt used before a real deletion. Without one,
// deletions that require confirmation are declined.
func (c *Cleaner) SetConfirmer(confirmer Confirmer) {
	c.confirmer = confirmer
}

// SetRemover replaces the filesystem remover
func (c *Cleaner) SetRemover(remover Remover) {
	c.remover = remover
}

// SetPathValidator replaces the protected path guard
func (c *Cleaner) SetPathValidator(pv *security.PathValidator) {
	c.pathValidator = pv
}

// Clean deletes matches in order, or only reports what would be freed when
// mode.DryRun is set. Per-item failures are collected in the result and
// never stop the batch. The returned error is non-nil only when the
// session could not be recorded or the prompt failed.
func (c *Cleaner) Clean(matches []scanner.Match, mode Mode, label string) (*CleanResult, error) {
	result := &CleanResult{
		Total:        len(matches),
		DryRun:       mode.DryRun,
		DeletedPaths: []string{},
		Errors:       []*DeletionError{},
	}

	if len(matches) == 0 {
		return result, nil
	}

	total := scanner.TotalSize(matches)

	if mode.DryRun {
		result.WouldFree = total
		c.logger.Info("dry run for %s: %d items, %s", label, len(matches), utils.FormatBytes(total))
		return result, c.record(result, label, total, len(matches), true)
	}

	if !mode.SkipConfirm {
		ok, err := c.confirm(len(matches), total)
		if err != nil {
			result.Declined = true
			return result, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			result.Declined = true
			c.logger.Info("deletion of %d items declined", len(matches))
			return result, nil
		}
	}

	for _, m := range matches {
		if delErr := c.deleteMatch(m); delErr != nil {
			c.logger.Warn("failed to delete %s: %v", m.Path, delErr)
			result.Errors = append(result.Errors, delErr)
			continue
		}

		c.logger.Info("deleted %s (%s)", m.Path, utils.FormatBytes(m.Size))
		result.DeletedCount++
		result.FreedBytes += m.Size
		result.DeletedPaths = append(result.DeletedPaths, m.Path)
	}

	c.logger.Info("deleted %d/%d items under %s, freed %s",
		result.DeletedCount, result.Total, label, utils.FormatBytes(result.FreedBytes))

	return result, c.record(result, label, result.FreedBytes, result.DeletedCount, false)
}

func (c *Cleaner) confirm(count int, size int64) (bool, error) {
	if c.confirmer == nil {
		return false, nil
	}
	return c.confirmer.Confirm(count, size)
}

// deleteMatch validates and removes one match
func (c *Cleaner) deleteMatch(m scanner.Match) *DeletionError {
	if c.pathValidator != nil {
		if err := c.pathValidator.ValidatePathForDeletion(m.Path); err != nil {
			return &DeletionError{Path: m.Path, Reason: ErrorProtectedPath, Original: err}
		}
	}

	// Lstat so a match replaced by a symlink is unlinked, not followed
	info, err := os.Lstat(m.Path)
	if err != nil {
		return CategorizeError(m.Path, err)
	}

	if err := c.remover.Remove(m.Path, info.IsDir()); err != nil {
		return CategorizeError(m.Path, err)
	}
	return nil
}

func (c *Cleaner) record(result *CleanResult, label string, size int64, items int, dryRun bool) error {
	if c.recorder == nil {
		return nil
	}
	if err := c.recorder.Record(label, size, items, dryRun); err != nil {
		c.logger.Error("failed to record session: %v", err)
		return fmt.Errorf("failed to record session: %w", err)
	}
	result.Recorded = true
	return nil
}
