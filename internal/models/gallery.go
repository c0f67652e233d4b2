package models

import (
	"time"

	"github.com/uptrace/bun"
)

type GalleryImage struct {
	bun.BaseModel `bun:"table:gallery"`

	ImageID     string    `bun:"image_id,pk" json:"image_id"`
	Src         string    `bun:"src,notnull" json:"src"`
	Alt         string    `bun:"alt" json:"alt"`
	Hint        string    `bun:"hint,nullzero" json:"hint,omitempty"`
	StoragePath string    `bun:"storage_path,nullzero" json:"storage_path,omitempty"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
}
