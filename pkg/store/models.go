package store

// GORM models used for persistence. Identifiers come from callers, so
// auto-increment is disabled on every primary key.
type LibraryModel struct {
	ID          int64 `gorm:"primaryKey;autoIncrement:false"`
	Title       string
	Description string
}

// TableName keeps the historical table name.
func (LibraryModel) TableName() string { return "librarys" }

type BookModel struct {
	ID          int64 `gorm:"primaryKey;autoIncrement:false"`
	Title       string
	Description string
}

func (BookModel) TableName() string { return "books" }

type UserModel struct {
	ID       int64 `gorm:"primaryKey;autoIncrement:false"`
	Username string
	Password string
	Email    string
}

func (UserModel) TableName() string { return "users" }
