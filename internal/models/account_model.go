package models

import "time"

const (
	AccountStatusLinked  = "linked"
	AccountStatusExpired = "expired"
)

// Account is one linked social account inside a group. ProfileKey is only
// meaningful when the provider is used in business (multi-profile) mode; it is
// stored encrypted at rest.
type Account struct {
	ID            int64     `db:"id" json:"id"`
	GroupID       int64     `db:"group_id" json:"group_id"`
	Platform      string    `db:"platform" json:"platform"`
	Username      string    `db:"username" json:"username"`
	ProfileKey    string    `db:"profile_key" json:"-"`
	AccountStatus string    `db:"account_status" json:"account_status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type AccountGroup struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ApiKey struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ApiKey    string    `db:"api_key" json:"api_key"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
