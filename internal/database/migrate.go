package database

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/internal/models"
)

// Models lists every table the application owns, parents first.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserProfile{},
		&models.Category{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeCategory{},
		&models.RecipeIngredient{},
	}
}

// RunMigrations brings the schema up to date. SQLite uses gorm auto-migration;
// PostgreSQL applies the ordered SQL files in migrations once each.
func RunMigrations(db *gorm.DB, migrations fs.FS, zlog *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		zlog.Info("using gorm auto-migration for sqlite")
		return db.AutoMigrate(Models()...)
	}

	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, name := range names {
		var count int64
		if err := db.Table("schema_migrations").Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			zlog.Debug("skipping migration, already applied", zap.String("name", name))
			continue
		}

		content, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (name) VALUES (?)", name).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		zlog.Info("applied migration", zap.String("name", name))
	}

	return nil
}
