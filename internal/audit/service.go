package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"padaria-backend/internal/auth"
	"padaria-backend/internal/database"
	"padaria-backend/internal/models"

	"gorm.io/gorm"
)

const (
	EntityProduct  = "product"
	EntityTable    = "table"
	EntityWaiter   = "waiter"
	EntityCustomer = "customer"
)

var (
	ErrAlreadyUndone = errors.New("this change was already undone")
	ErrNotUndoable   = errors.New("this change cannot be undone")
	// ErrUndoConflict means reverting would break a reference or a unique key.
	ErrUndoConflict = errors.New("change conflicts with existing records")
)

func isConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}

// undoFailed tags constraint violations so callers can tell them from driver faults.
func undoFailed(what string, err error) error {
	if isConstraintError(err) {
		return fmt.Errorf("%w: could not %s", ErrUndoConflict, what)
	}
	return fmt.Errorf("could not %s: %w", what, err)
}

// entity describes how an audited row is rebuilt from its JSON snapshot.
type entity struct {
	model   func() any
	columns []string // restored on undo of an update
}

var entities = map[string]entity{
	EntityProduct: {
		model:   func() any { return &models.Product{} },
		columns: []string{"name", "price", "category", "description", "available"},
	},
	EntityTable: {
		model:   func() any { return &models.Table{} },
		columns: []string{"number", "status"},
	},
	EntityWaiter: {
		model:   func() any { return &models.Waiter{} },
		columns: []string{"name", "code", "active"},
	},
	EntityCustomer: {
		model:   func() any { return &models.Customer{} },
		columns: []string{"name", "phone", "address"},
	},
}

type LogOptions struct {
	Actor       auth.Actor
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx writes the row through tx so it commits or rolls back with the change.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	log := models.AuditLog{
		UserID:      opts.Actor.UserID,
		UserName:    opts.Actor.Name,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("could not write audit log: %w", err)
	}
	return nil
}

// UndoLog reverts one audited change and records the undo as a new row.
func UndoLog(logID uint, actor auth.Actor) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("log not found: %w", err)
		}
		if log.IsUndone {
			return ErrAlreadyUndone
		}

		ent, ok := entities[log.EntityType]
		if !ok {
			return fmt.Errorf("%w: unknown entity type %s", ErrNotUndoable, log.EntityType)
		}

		switch log.Action {
		case models.AuditActionCreate:
			if err := tx.Delete(ent.model(), "id = ?", log.EntityID).Error; err != nil {
				return undoFailed("delete entity", err)
			}
		case models.AuditActionUpdate:
			v := ent.model()
			if err := json.Unmarshal([]byte(log.BeforeData), v); err != nil {
				return fmt.Errorf("could not read snapshot: %w", err)
			}
			if err := tx.Model(ent.model()).Where("id = ?", log.EntityID).Select(ent.columns).Updates(v).Error; err != nil {
				return undoFailed("restore entity", err)
			}
		case models.AuditActionDelete:
			// recreated under its old id so existing references resolve again
			v := ent.model()
			if err := json.Unmarshal([]byte(log.BeforeData), v); err != nil {
				return fmt.Errorf("could not read snapshot: %w", err)
			}
			if err := tx.Create(v).Error; err != nil {
				return undoFailed("recreate entity", err)
			}
		default:
			return fmt.Errorf("%w: %s actions are not reversible", ErrNotUndoable, log.Action)
		}

		now := time.Now()
		log.IsUndone = true
		log.UndoneBy = &actor.UserID
		log.UndoneAt = &now
		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("could not update log: %w", err)
		}

		undoLog := models.AuditLog{
			UserID:      actor.UserID,
			UserName:    actor.Name,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Undone: %s", log.Description),
			BeforeData:  log.AfterData,
			AfterData:   log.BeforeData,
			Undone:      true,
		}
		if err := tx.Create(&undoLog).Error; err != nil {
			return fmt.Errorf("could not write undo log: %w", err)
		}
		return nil
	})
}
