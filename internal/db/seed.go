package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sekolahku/poin-api/internal/models"
)

// SeedCategories inserts the default catalog on first start. Reruns are
// no-ops thanks to the name unique constraint.
func SeedCategories(ctx context.Context, database *sql.DB) error {
	defaults := []models.Category{
		{Name: "Terlambat masuk sekolah", Kind: models.KindViolation, DefaultPoints: 10},
		{Name: "Tidak mengerjakan tugas", Kind: models.KindViolation, DefaultPoints: 10},
		{Name: "Atribut seragam tidak lengkap", Kind: models.KindViolation, DefaultPoints: 5},
		{Name: "Membolos", Kind: models.KindViolation, DefaultPoints: 25},
		{Name: "Merokok di lingkungan sekolah", Kind: models.KindViolation, DefaultPoints: 50},
		{Name: "Juara lomba akademik", Kind: models.KindAchievement, DefaultPoints: 50},
		{Name: "Juara lomba non-akademik", Kind: models.KindAchievement, DefaultPoints: 40},
		{Name: "Pengurus OSIS", Kind: models.KindAchievement, DefaultPoints: 25},
		{Name: "Petugas upacara", Kind: models.KindAchievement, DefaultPoints: 10},
	}
	for _, c := range defaults {
		_, err := database.ExecContext(ctx, `
INSERT INTO categories (name, kind, default_points)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO NOTHING`, c.Name, string(c.Kind), c.DefaultPoints)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}
