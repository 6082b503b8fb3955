package comanda

import (
	"errors"
	"fmt"
	"time"

	"padaria-backend/internal/database"
	"padaria-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrComandaNotFound    = errors.New("comanda not found")
	ErrTableNotFound      = errors.New("table not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrTableBusy          = errors.New("table already has an open comanda")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
)

type Action string

const (
	ActionPrint    Action = "print"
	ActionClose    Action = "close"
	ActionFinalize Action = "finalize"
	ActionCancel   Action = "cancel"
)

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// Open starts a comanda on a table and marks the table occupied.
//
// Only a comanda still in `open` blocks the table; a printed one does not.
// The check and the insert share a transaction; on SQLite the
// single connection serializes them, on Postgres two clients racing on the same
// table can still both get through.
func Open(tableID uint, notes string, now time.Time) (*models.Comanda, error) {
	var c *models.Comanda
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			return notFound(err, ErrTableNotFound)
		}

		var count int64
		if err := tx.Model(&models.Comanda{}).
			Where("table_id = ? AND status = ?", tableID, models.ComandaOpen).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrTableBusy
		}

		c = models.NewComanda(tableID, notes, now)
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		table.Status = models.TableOccupied
		if err := tx.Model(&table).Update("status", table.Status).Error; err != nil {
			return err
		}
		c.Table = &table
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Load fetches a comanda with its table and items (products included).
func Load(db *gorm.DB, id uint) (*models.Comanda, error) {
	var c models.Comanda
	err := db.Preload("Table").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Product").
		First(&c, id).Error
	if err != nil {
		return nil, notFound(err, ErrComandaNotFound)
	}
	return &c, nil
}

// AddItem prices the product as it is now and adds it to the comanda.
func AddItem(comandaID, productID uint, quantity int, notes string) (*models.LineItem, *models.Comanda, error) {
	if quantity < 1 {
		return nil, nil, ErrInvalidQuantity
	}

	var (
		item models.LineItem
		c    models.Comanda
	)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Table").First(&c, comandaID).Error; err != nil {
			return notFound(err, ErrComandaNotFound)
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if !product.Available {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}

		item = models.LineItem{
			ComandaID: c.ID,
			ProductID: product.ID,
			Product:   &product,
			Quantity:  quantity,
			UnitPrice: product.Price,
			Notes:     notes,
			Status:    models.ItemPending,
		}
		if err := c.AddItem(&item); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
			return err
		}
		return tx.Model(&models.Comanda{}).Where("id = ?", c.ID).Updates(map[string]any{
			"total":  c.Total,
			"status": c.Status,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &item, &c, nil
}

// Transition applies a lifecycle action. Closing frees the table; no other
// action touches it.
func Transition(id uint, action Action, now time.Time) (*models.Comanda, error) {
	var c *models.Comanda
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if c, err = Load(tx, id); err != nil {
			return err
		}

		switch action {
		case ActionPrint:
			err = c.MarkPrinted(now)
		case ActionClose:
			err = c.Close(now)
		case ActionFinalize:
			err = c.Finalize(now)
		case ActionCancel:
			err = c.Cancel(now)
		default:
			err = fmt.Errorf("unknown action %q", action)
		}
		if err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(c).Error; err != nil {
			return err
		}

		if action == ActionClose {
			if err := tx.Model(&models.Table{}).Where("id = ?", c.TableID).
				Update("status", models.TableFree).Error; err != nil {
				return err
			}
			if c.Table != nil {
				c.Table.Status = models.TableFree
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetItemStatus moves a line item through the kitchen.
func SetItemStatus(itemID uint, status models.ItemStatus) (*models.LineItem, error) {
	var item models.LineItem
	if err := database.DB.First(&item, itemID).Error; err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}
	item.Status = status
	if err := database.DB.Model(&item).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
