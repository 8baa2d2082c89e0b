package data

import (
	"github.com/ROCm/roc-optiq-sub003/infrastructure/errors"
)

// Tag identifies which field of a Data value is live.
type Tag int

const (
	TagUInt64 Tag = iota
	TagDouble
	TagString
	TagObject
)

func (t Tag) String() string {
	switch t {
	case TagUInt64:
		return "UInt64"
	case TagDouble:
		return "Double"
	case TagString:
		return "String"
	case TagObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// Data is the tagged-value primitive shared by every property get/set
// on the ABI: a variant over {UInt64, Double, String, Object}.
// Object is a weak, non-owning reference to a polymorphic Handle --
// Data itself never owns the pointee.
type Data struct {
	tag    Tag
	u64    uint64
	f64    float64
	str    string
	object Handle
}

func NewUInt64(v uint64) Data { return Data{tag: TagUInt64, u64: v} }
func NewDouble(v float64) Data { return Data{tag: TagDouble, f64: v} }
func NewString(v string) Data { return Data{tag: TagString, str: v} }
func NewObject(v Handle) Data { return Data{tag: TagObject, object: v} }

func (d Data) Tag() Tag { return d.tag }

// AsUInt64 returns the value if the tag is UInt64, else InvalidType.
func (d Data) AsUInt64() (uint64, error) {
	if d.tag != TagUInt64 {
		return 0, errors.InvalidType("value", TagUInt64.String(), d.tag.String())
	}
	return d.u64, nil
}

func (d Data) AsDouble() (float64, error) {
	if d.tag != TagDouble {
		return 0, errors.InvalidType("value", TagDouble.String(), d.tag.String())
	}
	return d.f64, nil
}

func (d Data) AsString() (string, error) {
	if d.tag != TagString {
		return "", errors.InvalidType("value", TagString.String(), d.tag.String())
	}
	return d.str, nil
}

func (d Data) AsObject() (Handle, error) {
	if d.tag != TagObject {
		return nil, errors.InvalidType("value", TagObject.String(), d.tag.String())
	}
	return d.object, nil
}

// Handle is the base entity every exposed object implements:
// a polymorphic object with a fixed Kind and uniform typed property
// get/set keyed by an enumerated property and, for indexed properties,
// an index.
type Handle interface {
	// Kind returns this handle's type tag. Fixed for the handle's life.
	Kind() Kind
	// GetUInt64/GetDouble/GetString/GetObject read a property. index is
	// used only for indexed properties; implementations ignore it
	// otherwise. String getters obey a two-call length-probe convention:
	// the query/runtime layer wraps this as GetStringInto below, but the
	// interface returns the full string and lets callers truncate/probe
	// as needed.
	GetUInt64(prop Property, index int) (uint64, error)
	GetDouble(prop Property, index int) (float64, error)
	GetString(prop Property, index int) (string, error)
	GetObject(prop Property, index int) (Handle, error)
	SetUInt64(prop Property, index int, v uint64) error
	SetDouble(prop Property, index int, v float64) error
	SetString(prop Property, index int, v string) error
	SetObject(prop Property, index int, v Handle) error
}

// CheckKind validates that prop belongs to the property block owned by
// k, returning UnhandledProperty when it falls in another kind's block
// and InvalidEnum when
// prop addresses no block at all.
func CheckKind(k Kind, prop Property) error {
	owner := KindOf(prop)
	if owner == kindCount {
		return errors.InvalidEnum(prop.String())
	}
	if owner != k {
		return errors.UnhandledProperty(k.String(), prop.String())
	}
	return nil
}

func (p Property) String() string {
	// Best-effort human label; exact names are assigned in property.go.
	// Kept deliberately simple since this is only used in error details.
	return "prop#" + itoa(int(p))
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// CheckIndex validates 0 <= index < count, returning OutOfRange
// otherwise: indexed properties require index < count_of(property).
func CheckIndex(prop Property, index, count int) error {
	if index < 0 || index >= count {
		return errors.OutOfRange(prop.String(), index, count)
	}
	return nil
}
