package transcode

import "strings"

// Application field names with a backend counterpart.
const (
	IDField        = "id"
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

// Backend system field names.
const (
	// BackendIDField is the reserved identifier field.
	BackendIDField = "$id"

	// BackendCreatedAtField is the reserved creation timestamp field.
	BackendCreatedAtField = "$createdAt"

	// BackendTimestampField holds the raw write timestamp in epoch milliseconds.
	// It is maintained by backends on every write.
	BackendTimestampField = "$timestamp"
)

// ReservedPrefix is prepended to application-reserved field names on write.
const ReservedPrefix = "_app"

// keyMapping is the authoritative application ⇄ backend key table.
//
// Keys not listed here pass through unchanged unless they are application-reserved.
var keyMapping = []struct {
	application string
	backend     string
}{
	{application: IDField, backend: BackendIDField},
	{application: CreatedAtField, backend: BackendCreatedAtField},
}

var (
	toBackendKeys     = make(map[string]string, len(keyMapping))
	toApplicationKeys = make(map[string]string, len(keyMapping))
)

func init() {
	for _, m := range keyMapping {
		toBackendKeys[m.application] = m.backend
		toApplicationKeys[m.backend] = m.application
	}
}

// IsReservedField returns true for application-reserved field names
// (the ones starting with `_` or `$`).
func IsReservedField(key string) bool {
	return strings.HasPrefix(key, "_") || strings.HasPrefix(key, "$")
}

// IsSystemField returns true for fields owned by the backend.
func IsSystemField(key string) bool {
	switch key {
	case BackendIDField, BackendCreatedAtField, BackendTimestampField:
		return true
	default:
		return false
	}
}

// IsTimestampField returns true if the field name suggests a temporal meaning.
//
// Identifier and raw timestamp system fields are never treated as dates.
func IsTimestampField(key string) bool {
	if key == BackendIDField || key == BackendTimestampField {
		return false
	}

	k := strings.ToLower(key)

	return strings.Contains(k, "at") || strings.Contains(k, "date") || strings.Contains(k, "time")
}

// ToBackendKey maps a single application field name to its backend name.
func ToBackendKey(key string) string {
	if b, ok := toBackendKeys[key]; ok {
		return b
	}

	if IsReservedField(key) {
		return ReservedPrefix + key
	}

	return key
}

// ToApplicationKey maps a single backend field name to its application name.
func ToApplicationKey(key string) string {
	if a, ok := toApplicationKeys[key]; ok {
		return a
	}

	if rest, ok := strings.CutPrefix(key, ReservedPrefix); ok && IsReservedField(rest) {
		return rest
	}

	return key
}

// MapPath maps a dotted application field path to the backend document path.
//
// Only the top-level segment is remapped: documents are transcoded at the top level only,
// so nested keys are stored as the application wrote them.
func MapPath(path string) []string {
	segments := strings.Split(path, ".")
	segments[0] = ToBackendKey(segments[0])

	return segments
}

// IsNestedPath returns true if the field path has more than one segment.
func IsNestedPath(path string) bool {
	return strings.Contains(path, ".")
}
