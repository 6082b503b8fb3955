package database

import (
	"log"

	"padaria-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	Name, Price, Category, Description string
}

var defaultProducts = []seedProduct{
	{"Pão Francês", "0.50", "Pães", "Pão francês tradicional"},
	{"Pão de Queijo", "2.50", "Pães", "Pão de queijo caseiro"},
	{"Croissant", "4.00", "Pães", "Croissant de manteiga"},
	{"Café Expresso", "3.50", "Cafés", "Café expresso tradicional"},
	{"Cappuccino", "5.00", "Cafés", "Cappuccino com espuma de leite"},
	{"Coca-Cola", "4.50", "Bebidas", "Refrigerante Coca-Cola 350ml"},
	{"Suco de Laranja", "6.00", "Bebidas", "Suco de laranja natural"},
	{"Brigadeiro", "3.00", "Doces", "Brigadeiro caseiro"},
	{"Pastel de Carne", "5.50", "Salgados", "Pastel de carne moída"},
	{"Coxinha", "4.50", "Salgados", "Coxinha de frango"},
}

var defaultTables = []int{1, 2, 3, 4, 5}

// SeedDefaults fills an empty catalog and floor plan. Tables that already hold
// rows are left alone.
func SeedDefaults(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			for _, p := range defaultProducts {
				product := models.Product{
					Name:        p.Name,
					Price:       decimal.RequireFromString(p.Price),
					Category:    p.Category,
					Description: p.Description,
					Available:   true,
				}
				if err := tx.Create(&product).Error; err != nil {
					return err
				}
			}
			log.Printf("Seeded %d default products", len(defaultProducts))
		}

		if err := tx.Model(&models.Table{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			for _, n := range defaultTables {
				if err := tx.Create(&models.Table{Number: n, Status: models.TableFree}).Error; err != nil {
					return err
				}
			}
			log.Printf("Seeded %d tables", len(defaultTables))
		}
		return nil
	})
}
