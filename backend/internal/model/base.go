package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ── INT[] column type ──

// IntArray maps a PostgreSQL INT[] column, implementing the GORM Scanner/Valuer pair.
// Stored as the "{1,2,3}" text form, which sqlite keeps in a TEXT column.
type IntArray []int

func (IntArray) GormDataType() string { return "intarray" }

// GormDBDataType picks the column type per dialect
func (IntArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "int[]"
	}
	return "text"
}

// Scan parses the "{1,2,3}" text form into []int.
func (a *IntArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("IntArray.Scan: unsupported type %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*a = IntArray{}
		return nil
	}
	parts := strings.Split(s, ",")
	arr := make(IntArray, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("IntArray.Scan: invalid element %q: %w", p, err)
		}
		arr = append(arr, n)
	}
	*a = arr
	return nil
}

// Value renders []int as "{1,2,3}".
func (a IntArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	parts := make([]string, len(a))
	for i, n := range a {
		parts[i] = strconv.Itoa(n)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// BaseModel audit columns embedded by every business model
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// VersionedModel adds an optimistic-lock counter
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// ensureID fills an empty primary key on the client side.
// Every dialect gets its ids here; sqlite has no gen_random_uuid().
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All lists the models for AutoMigrate (sqlite and integration tests)
func All() []interface{} {
	return []interface{}{
		&Jobsite{}, &Job{}, &ShiftDate{}, &Shift{}, &Candidate{},
		&JobOffer{}, &CarrierList{},
		&TimeSheet{}, &TimeSheetStateLog{},
		&RateCoefficient{}, &CoefficientRule{}, &RateCoefficientModifier{},
		&Notification{},
	}
}
