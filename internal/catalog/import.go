package catalog

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"padaria-backend/internal/audit"
	"padaria-backend/internal/auth"
	"padaria-backend/internal/database"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportResult summarizes a spreadsheet import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}

// Column order: name | price | category | description | available
const (
	colName = iota
	colPrice
	colCategory
	colDescription
	colAvailable
)

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	switch first {
	case "name", "nome", "product", "produto":
		return true
	}
	return false
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// parsePrice accepts "4.50", "4,50" and "R$ 4,50".
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseAvailable(s string) bool {
	switch strings.ToLower(s) {
	case "0", "no", "não", "nao", "false", "n":
		return false
	}
	return true
}

// ImportProducts reads the first sheet of an .xlsx file and upserts products by name.
// Every created or updated product gets an audit row attributed to actor.
func ImportProducts(r io.Reader, actor auth.Actor) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %s: %w", sheets[0], err)
	}

	start := 0
	if len(rows) > 0 && isHeaderRow(rows[0]) {
		start = 1
	}

	res := &ImportResult{Skipped: make([]string, 0)}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for i := start; i < len(rows); i++ {
			row := rows[i]
			line := i + 1

			name := cell(row, colName)
			if name == "" {
				continue
			}
			category := cell(row, colCategory)
			price, perr := parsePrice(cell(row, colPrice))
			if perr != nil || !validPrice(price) || category == "" {
				res.Skipped = append(res.Skipped, fmt.Sprintf("line %d: %s", line, name))
				continue
			}

			var p models.Product
			lookup := tx.Where("LOWER(name) = LOWER(?)", name).First(&p)
			exists := lookup.Error == nil
			if lookup.Error != nil && !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("line %d: could not look up %s: %w", line, name, lookup.Error)
			}
			before := p

			p.Name = name
			p.Price = price.Round(2)
			p.Category = category
			p.Description = cell(row, colDescription)
			p.Available = parseAvailable(cell(row, colAvailable))

			if exists {
				if err := tx.Save(&p).Error; err != nil {
					return err
				}
				if err := audit.WriteLogTx(tx, audit.LogOptions{
					Actor:       actor,
					EntityType:  audit.EntityProduct,
					EntityID:    p.ID,
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Product updated by import: %s", p.Name),
					Before:      before,
					After:       p,
				}); err != nil {
					return err
				}
				res.Updated++
				continue
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			if err := audit.WriteLogTx(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityProduct,
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Product created by import: %s", p.Name),
				After:       p,
			}); err != nil {
				return err
			}
			res.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// POST /api/admin/products/import (multipart, field "file")
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file upload missing: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not open upload")
		}
		defer file.Close()

		actor, _ := auth.CurrentActor(c)
		res, err := ImportProducts(file, actor)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		log.Printf("Product import %s: %d created, %d updated, %d skipped",
			fileHeader.Filename, res.Created, res.Updated, len(res.Skipped))
		return c.JSON(res)
	}
}
