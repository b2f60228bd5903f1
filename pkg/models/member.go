package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	FullName  string    `bun:",nullzero" json:"full_name"`
	Email     string    `bun:",nullzero" json:"email"`
}
