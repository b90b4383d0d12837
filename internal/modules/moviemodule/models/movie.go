// Package models - catalog entities
package models

import (
	"time"

	"gorm.io/gorm"
)

// IMDBTitleURL is the prefix of a movie's public IMDB page.
const IMDBTitleURL = "https://www.imdb.com/title/"

// Category is a genre a movie can belong to
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

// Movie is a catalog entry keyed by its IMDB tconst
type Movie struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	Title      string   `gorm:"type:text;not null" json:"title"`
	ImdbTconst string   `gorm:"size:20;not null;uniqueIndex" json:"imdb_tconst"`
	Year       *int     `json:"year"`
	Runtime    *int     `json:"runtime"` // In minutes
	Rating     *float64 `json:"rating"`  // 0 to 10

	Categories []Category `gorm:"many2many:movie_categories" json:"category"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Link returns the movie's IMDB page. It is derived, never stored.
func (m *Movie) Link() string {
	return IMDBTitleURL + m.ImdbTconst + "/"
}

// CategoryNames returns the names of the loaded categories in order.
func (m *Movie) CategoryNames() []string {
	names := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		names = append(names, c.Name)
	}
	return names
}

// MovieCategory is the movie/category join row
type MovieCategory struct {
	MovieID    uint `gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// AllModels lists every table the catalog owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{&Category{}, &Movie{}, &MovieCategory{}}
}

// Migrate creates or updates the catalog schema.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Movie{}, "Categories", &MovieCategory{}); err != nil {
		return err
	}
	return db.AutoMigrate(AllModels()...)
}
