// internal/core/domain/catalog.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category groups items
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate performs domain validation on the category
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "is required")
	}
	return nil
}

// PrepareForStorage fills defaults before the category is persisted
func (c *Category) PrepareForStorage() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
}

// Location is a place stock can sit: building / room / unit
type Location struct {
	ID        uuid.UUID `json:"id"`
	Building  string    `json:"building,omitempty"`
	Room      string    `json:"room,omitempty"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName joins the non-empty parts of the location
func (l *Location) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Building, l.Room, l.Unit} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " / ")
}

// Validate performs domain validation on the location
func (l *Location) Validate() error {
	if strings.TrimSpace(l.Unit) == "" {
		return NewValidationError("unit", "is required")
	}
	return nil
}

// PrepareForStorage fills defaults before the location is persisted
func (l *Location) PrepareForStorage() {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.Building = strings.TrimSpace(l.Building)
	l.Room = strings.TrimSpace(l.Room)
	l.Unit = strings.TrimSpace(l.Unit)

	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
}

// User performs transactions. There is no credential attached.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate performs domain validation on the user
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return NewValidationError("email", "is not a valid address")
	}
	return nil
}

// PrepareForStorage fills defaults before the user is persisted
func (u *User) PrepareForStorage() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
}
