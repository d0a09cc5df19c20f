package database

import (
	"log"
	"os"
	"strings"
	"time"

	"go-pos-store/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open creates a connection against any SQLite DSN and syncs the schema.
// Tests point this at an in-memory database.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// SQLite enforces nothing unless you ask
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Customer{},
		&models.Supplier{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Return{},
		&models.ReturnItem{},
		&models.CreditTransaction{},
		&models.StockMovement{},
		&models.CashSession{},
		&models.CashMovement{},
		&models.AuditLog{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Connect opens the store database file configured in .env and keeps the
// global handle the handlers use.
func Connect() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "pos.db"
	}

	var err error
	for i := 0; i < 5; i++ {
		DB, err = Open(path)
		if err == nil {
			break
		}
		log.Printf("Failed to open database. Retrying in 2 seconds... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatal("Failed to open database after 5 attempts:", err)
	}

	log.Println("✅ Successfully opened " + path)

	if n, err := LinkPackUnitsBySuffix(DB); err != nil {
		log.Println("⚠️ Pack/unit link migration failed:", err)
	} else if n > 0 {
		log.Printf("✅ Linked %d legacy unit products to their packs", n)
	}

	log.Println("✅ Database Schema Synced!")
}

// LinkPackUnitsBySuffix is a one-time data migration. Legacy data marked
// per-unit products only by a name suffix, e.g. "Marlboro (Unité)" being
// the unit sibling of "Marlboro". At runtime only the explicit
// parent_product_id is consulted, so this pass fills it in once.
func LinkPackUnitsBySuffix(db *gorm.DB) (int, error) {
	const suffix = " (Unité)"

	var units []models.Product
	err := db.Where("parent_product_id IS NULL AND name LIKE ?", "%"+suffix).Find(&units).Error
	if err != nil {
		return 0, err
	}

	linked := 0
	for _, unit := range units {
		parentName := strings.TrimSuffix(unit.Name, suffix)

		var parent models.Product
		if err := db.Where("name = ? AND is_active = ?", parentName, true).First(&parent).Error; err != nil {
			continue // no pack with that name, leave the unit standalone
		}

		if err := db.Model(&unit).Update("parent_product_id", parent.ID).Error; err != nil {
			return linked, err
		}
		linked++
	}

	return linked, nil
}
