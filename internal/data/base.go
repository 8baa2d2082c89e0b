package data

import "github.com/ROCm/roc-optiq-sub003/infrastructure/errors"

// BaseHandle implements Handle with every accessor returning
// UnhandledProperty (after the kind-range check runs and passes) and
// ReadOnly on every setter. Concrete handle types embed BaseHandle and override only the
// properties they actually expose, so forgetting to implement a
// property fails closed rather than panicking.
type BaseHandle struct {
	kind Kind
}

func NewBaseHandle(k Kind) BaseHandle { return BaseHandle{kind: k} }

func (h BaseHandle) Kind() Kind { return h.kind }

func (h BaseHandle) checkOwned(prop Property) error {
	return CheckKind(h.kind, prop)
}

func (h BaseHandle) GetUInt64(prop Property, index int) (uint64, error) {
	if err := h.checkOwned(prop); err != nil {
		return 0, err
	}
	return 0, errors.UnhandledProperty(h.kind.String(), prop.String())
}

func (h BaseHandle) GetDouble(prop Property, index int) (float64, error) {
	if err := h.checkOwned(prop); err != nil {
		return 0, err
	}
	return 0, errors.UnhandledProperty(h.kind.String(), prop.String())
}

func (h BaseHandle) GetString(prop Property, index int) (string, error) {
	if err := h.checkOwned(prop); err != nil {
		return "", err
	}
	return "", errors.UnhandledProperty(h.kind.String(), prop.String())
}

func (h BaseHandle) GetObject(prop Property, index int) (Handle, error) {
	if err := h.checkOwned(prop); err != nil {
		return nil, err
	}
	return nil, errors.UnhandledProperty(h.kind.String(), prop.String())
}

func (h BaseHandle) SetUInt64(prop Property, index int, v uint64) error {
	if err := h.checkOwned(prop); err != nil {
		return err
	}
	return errors.ReadOnly(prop.String())
}

func (h BaseHandle) SetDouble(prop Property, index int, v float64) error {
	if err := h.checkOwned(prop); err != nil {
		return err
	}
	return errors.ReadOnly(prop.String())
}

func (h BaseHandle) SetString(prop Property, index int, v string) error {
	if err := h.checkOwned(prop); err != nil {
		return err
	}
	return errors.ReadOnly(prop.String())
}

func (h BaseHandle) SetObject(prop Property, index int, v Handle) error {
	if err := h.checkOwned(prop); err != nil {
		return err
	}
	return errors.ReadOnly(prop.String())
}

// GetStringInto implements the two-call length-probe convention: when
// buf is nil, it reports the natural length of the string value in
// bytes without copying. When buf is non-nil, it copies up to
// len(buf)-1 bytes plus a trailing NUL and still reports the natural
// length, so a truncated copy does not change the reported size.
func GetStringInto(h Handle, prop Property, index int, buf []byte) (n int, err error) {
	full, err := h.GetString(prop, index)
	if err != nil {
		return 0, err
	}
	if buf == nil {
		return len(full), nil
	}
	if len(buf) == 0 {
		return 0, nil
	}
	capacity := len(buf) - 1
	if capacity > len(full) {
		capacity = len(full)
	}
	copy(buf, full[:capacity])
	buf[capacity] = 0
	return len(full), nil
}
