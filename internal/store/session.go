package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
)

// Versions returns the stored schema version of every component.
func (s *Store) Versions(ctx context.Context) (map[string]int, error) {
	var rows []models.Version
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	versions := make(map[string]int, len(rows))
	for _, r := range rows {
		versions[r.Component] = r.Number
	}
	return versions, nil
}

// WriteVersions upserts the given component versions.
func (s *Store) WriteVersions(ctx context.Context, versions map[string]int) error {
	rows := make([]models.Version, 0, len(versions))
	for component, number := range versions {
		rows = append(rows, models.Version{Component: component, Number: number})
	}
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "component"}},
		DoUpdates: clause.AssignmentColumns([]string{"number"}),
	}).Create(&rows).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Locks returns the advisory lock rows currently held.
func (s *Store) Locks(ctx context.Context) ([]models.Lock, error) {
	var locks []models.Lock
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&locks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return locks, nil
}

// AcquireLock records that hostname/pid has the book open for writing.
// Unless force is set it fails with ErrBookLocked when another holder exists.
// The check and insert share one database transaction, but the lock stays
// advisory: nothing stops a process that never asks for it.
func (s *Store) AcquireLock(ctx context.Context, hostname string, pid int, force bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var held []models.Lock
		if err := tx.Find(&held).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, l := range held {
			if l.Hostname == hostname && l.PID == pid {
				return nil
			}
		}
		if len(held) > 0 && !force {
			return apperrors.WithDetails(apperrors.ErrBookLocked, apperrors.ErrBookLocked.Message, map[string]any{
				"hostname": held[0].Hostname,
				"pid":      held[0].PID,
			})
		}
		if err := tx.Create(&models.Lock{Hostname: hostname, PID: pid}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ReleaseLock removes the lock rows of hostname/pid.
func (s *Store) ReleaseLock(ctx context.Context, hostname string, pid int) error {
	err := s.db.WithContext(ctx).
		Where("hostname = ? AND pid = ?", hostname, pid).
		Delete(&models.Lock{}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ClearLocks removes every lock row, whoever holds it.
func (s *Store) ClearLocks(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.Lock{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}
