package dbusbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/erikh/growl/pkg/bus"
)

// encodeInfo converts a UserInfo into the a{sv} dictionary carried in the
// signal body.
func encodeInfo(info bus.UserInfo) (map[string]dbus.Variant, error) {
	out := make(map[string]dbus.Variant, len(info))
	for k, v := range info {
		variant, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", k, err)
		}
		out[k] = variant
	}
	return out, nil
}

func encodeValue(v any) (dbus.Variant, error) {
	switch val := v.(type) {
	case string:
		return dbus.MakeVariant(val), nil
	case int:
		return dbus.MakeVariant(int32(val)), nil //nolint:gosec // payload ints are pids and priorities
	case int32, int64, uint32, bool:
		return dbus.MakeVariant(val), nil
	case []byte:
		if val == nil {
			val = []byte{}
		}
		return dbus.MakeVariant(val), nil
	case []string:
		if val == nil {
			val = []string{}
		}
		return dbus.MakeVariant(val), nil
	case bus.UserInfo:
		nested, err := encodeInfo(val)
		if err != nil {
			return dbus.Variant{}, err
		}
		return dbus.MakeVariant(nested), nil
	case map[string]any:
		return encodeValue(bus.UserInfo(val))
	}
	return dbus.Variant{}, fmt.Errorf("unsupported payload type %T", v)
}

// decodeInfo is the inverse of encodeInfo. Integers come back as int.
func decodeInfo(in map[string]dbus.Variant) bus.UserInfo {
	out := make(bus.UserInfo, len(in))
	for k, v := range in {
		out[k] = decodeValue(v.Value())
	}
	return out
}

func decodeValue(v any) any {
	switch val := v.(type) {
	case int32:
		return int(val)
	case int64:
		return int(val)
	case uint32:
		return int(val)
	case map[string]dbus.Variant:
		return decodeInfo(val)
	case dbus.Variant:
		return decodeValue(val.Value())
	}
	return v
}

// decodeSignal extracts the posted name and payload from a Post signal.
func decodeSignal(sig *dbus.Signal) (bus.Message, bool) {
	if sig == nil || sig.Name != Interface+"."+Member || len(sig.Body) != 2 {
		return bus.Message{}, false
	}
	name, ok := sig.Body[0].(string)
	if !ok {
		return bus.Message{}, false
	}
	raw, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return bus.Message{}, false
	}
	return bus.Message{Name: name, UserInfo: decodeInfo(raw)}, true
}
