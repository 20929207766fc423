// Package bus defines the distributed notification bus that growl clients and
// the daemon talk over, plus an in-process implementation.
//
// A message is a name plus a user-info dictionary, the same shape as a
// distributed notification. Values in UserInfo are limited to string, int,
// bool, []byte, []string and nested UserInfo so every transport can carry them.
package bus

// UserInfo is the payload dictionary attached to a posted message.
type UserInfo map[string]any

// Message is one delivery on the bus.
type Message struct {
	Name     string
	UserInfo UserInfo
}

// Handler receives messages for an observed name.
type Handler func(Message)

// Bus posts named messages and delivers them to observers of that name.
//
// Post is fire-and-forget: a nil error only means the transport accepted the
// message, not that anyone received it.
type Bus interface {
	Post(name string, info UserInfo) error
	Observe(name string, fn Handler) (cancel func(), err error)
}

// String returns the string value stored under key, or "".
func (u UserInfo) String(key string) string {
	s, _ := u[key].(string)
	return s
}

// Int returns the integer value stored under key. Transports may decode
// numbers as any fixed-width integer type.
func (u UserInfo) Int(key string) (int, bool) {
	switch v := u[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint32:
		return int(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Bytes returns the binary value stored under key.
func (u UserInfo) Bytes(key string) []byte {
	b, _ := u[key].([]byte)
	return b
}

// Strings returns the string list stored under key.
func (u UserInfo) Strings(key string) []string {
	switch v := u[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Dict returns the nested dictionary stored under key.
func (u UserInfo) Dict(key string) (UserInfo, bool) {
	switch v := u[key].(type) {
	case UserInfo:
		return v, true
	case map[string]any:
		return UserInfo(v), true
	}
	return nil, false
}
