package domain

// Library is a library record. The identifier is chosen by the caller.
type Library struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Book shares the Library shape but lives in its own table.
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// User is an account record. Password is persisted and returned as-is.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Key returns the library identifier.
func (l Library) Key() int64 { return l.ID }

// Key returns the book identifier.
func (b Book) Key() int64 { return b.ID }

// Key returns the user identifier.
func (u User) Key() int64 { return u.ID }
