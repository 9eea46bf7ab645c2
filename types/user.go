package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Role indicates the user's authorization level within the gallery.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account as returned by the user data source.
// Every attribute except ID and CreatedAt may be edited by the console.
type User struct {
	// ID is the opaque identifier assigned by the data source.
	ID string `json:"_id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name,omitempty" db:"name" validate:"required"`

	// Email is the user's email address. The user API names this field "gmail".
	Email string `json:"gmail,omitempty" db:"email" validate:"required,email"`

	// Phone is the user's phone number.
	Phone string `json:"phone,omitempty" db:"phone" validate:"required"`

	// Country is the user's country of residence.
	Country string `json:"country,omitempty" db:"country" validate:"required"`

	// Role is either "user" or "admin".
	Role Role `json:"role,omitempty" db:"role" validate:"oneof=user admin"`

	// CreatedAt is the instant the data source created the account.
	// It is only used for ordering.
	CreatedAt Timestamp `json:"createdAt" db:"created_at"`
}

// UnmarshalJSON decodes a user, accepting "email" when "gmail" is absent.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		AltEmail string `json:"email"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.Email == "" {
		u.Email = aux.AltEmail
	}
	return nil
}

// Values returns every attribute as text, in a fixed order.
// Absent attributes are empty strings.
func (u User) Values() []string {
	return []string{
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		u.Country,
		string(u.Role),
		u.CreatedAt.String(),
	}
}

// Timestamp is an instant decoded leniently from the user API.
// It accepts RFC 3339 values and plain dates; anything else decodes
// to the zero instant.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses raw using the accepted layouts.
func ParseTimestamp(raw string) (Timestamp, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	return Timestamp{}, false
}

// MustTimestamp parses raw and panics when it is not a valid timestamp.
func MustTimestamp(raw string) Timestamp {
	ts, ok := ParseTimestamp(raw)
	if !ok {
		panic("types: invalid timestamp " + raw)
	}
	return ts
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = Timestamp{}
		return nil
	}
	parsed, _ := ParseTimestamp(raw)
	*t = parsed
	return nil
}
