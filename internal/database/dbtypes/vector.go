package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// XVector is an embedding stored as the text literal "[0.12,0.34,...]",
// which mysql VECTOR, pgvector and plain text columns all accept.
type XVector []float32

func (v XVector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (v *XVector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch data := value.(type) {
	case string:
		return v.parse(data)
	case []byte:
		return v.parse(string(data))
	default:
		return fmt.Errorf("unsupported type for XVector: %T", value)
	}
}

func (v *XVector) parse(s string) error {
	s = strings.Trim(s, "[] ")
	if s == "" {
		*v = XVector{}
		return nil
	}
	parts := strings.Split(s, ",")
	vec := make(XVector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("xvector element %d: %w", i, err)
		}
		vec[i] = float32(f)
	}
	*v = vec
	return nil
}

// GormDBDataType maps the column to a native vector type where the database
// has one (pgvector, TiDB) and to text elsewhere.
func (XVector) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return "vector"
	default:
		return "text"
	}
}

// Literal is the text form used inside raw distance queries.
func (v XVector) Literal() string {
	s, _ := v.Value()
	return s.(string)
}

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector is all zeros.
func Cosine(a, b XVector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
