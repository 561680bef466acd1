package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"shelfhub/pkg/domain"
)

// Table executes single-statement CRUD for one entity table. D is the domain
// type handed to callers, M the GORM model mapped onto the table.
type Table[D any, M any] struct {
	db        *gorm.DB
	name      string
	key       func(D) int64
	toModel   func(D) M
	fromModel func(M) D
	columns   func(D) map[string]any
}

// NewLibraryTable returns the store adapter for the librarys table.
func NewLibraryTable(db *gorm.DB) *Table[domain.Library, LibraryModel] {
	return &Table[domain.Library, LibraryModel]{
		db:   db,
		name: "library",
		key:  domain.Library.Key,
		toModel: func(l domain.Library) LibraryModel {
			return LibraryModel{ID: l.ID, Title: l.Title, Description: l.Description}
		},
		fromModel: func(m LibraryModel) domain.Library {
			return domain.Library{ID: m.ID, Title: m.Title, Description: m.Description}
		},
		columns: func(l domain.Library) map[string]any {
			return map[string]any{"title": l.Title, "description": l.Description}
		},
	}
}

// NewBookTable returns the store adapter for the books table.
func NewBookTable(db *gorm.DB) *Table[domain.Book, BookModel] {
	return &Table[domain.Book, BookModel]{
		db:   db,
		name: "book",
		key:  domain.Book.Key,
		toModel: func(b domain.Book) BookModel {
			return BookModel{ID: b.ID, Title: b.Title, Description: b.Description}
		},
		fromModel: func(m BookModel) domain.Book {
			return domain.Book{ID: m.ID, Title: m.Title, Description: m.Description}
		},
		columns: func(b domain.Book) map[string]any {
			return map[string]any{"title": b.Title, "description": b.Description}
		},
	}
}

// NewUserTable returns the store adapter for the users table.
func NewUserTable(db *gorm.DB) *Table[domain.User, UserModel] {
	return &Table[domain.User, UserModel]{
		db:   db,
		name: "user",
		key:  domain.User.Key,
		toModel: func(u domain.User) UserModel {
			return UserModel{ID: u.ID, Username: u.Username, Password: u.Password, Email: u.Email}
		},
		fromModel: func(m UserModel) domain.User {
			return domain.User{ID: m.ID, Username: m.Username, Password: m.Password, Email: m.Email}
		},
		columns: func(u domain.User) map[string]any {
			return map[string]any{"username": u.Username, "password": u.Password, "email": u.Email}
		},
	}
}

// Get returns the row with the given id. The bool is false when no row matched.
func (t *Table[D, M]) Get(ctx context.Context, id int64) (D, bool, error) {
	var (
		zero  D
		model M
	)
	if err := t.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("get %s %d: %w", t.name, id, err)
	}
	return t.fromModel(model), true, nil
}

// List returns every row ordered by id.
func (t *Table[D, M]) List(ctx context.Context) ([]D, error) {
	var models []M
	if err := t.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	res := make([]D, 0, len(models))
	for _, m := range models {
		res = append(res, t.fromModel(m))
	}
	return res, nil
}

// Create inserts a row. An existing id yields an error wrapping ErrDuplicateKey.
func (t *Table[D, M]) Create(ctx context.Context, row D) error {
	model := t.toModel(row)
	if err := t.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create %s %d: %w", t.name, t.key(row), ErrDuplicateKey)
		}
		return fmt.Errorf("create %s %d: %w", t.name, t.key(row), err)
	}
	return nil
}

// Update overwrites every non-identifier column in one statement and reports
// whether a row matched.
func (t *Table[D, M]) Update(ctx context.Context, row D) (bool, error) {
	res := t.db.WithContext(ctx).Model(new(M)).Where("id = ?", t.key(row)).Updates(t.columns(row))
	if res.Error != nil {
		return false, fmt.Errorf("update %s %d: %w", t.name, t.key(row), res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the row with the given id. Missing rows are not an error.
func (t *Table[D, M]) Delete(ctx context.Context, id int64) error {
	if err := t.db.WithContext(ctx).Where("id = ?", id).Delete(new(M)).Error; err != nil {
		return fmt.Errorf("delete %s %d: %w", t.name, id, err)
	}
	return nil
}
