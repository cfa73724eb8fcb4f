package metadata

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/ydb-platform/docbridge/internal/util/must"
)

const (
	maxObjectNameLength = 255
)

// objectNameCharacters are unsupported characters of YDB scheme object name that are replaced with `_`.
var objectNameCharacters = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// validCollectionName matches collection names accepted by the registry.
var validCollectionName = regexp.MustCompile(`^[^\x00$/]+$`)

// ValidCollectionName reports whether the collection name may be stored in the registry.
func ValidCollectionName(name string) bool {
	return len(name) <= maxObjectNameLength && validCollectionName.MatchString(name) && !strings.HasPrefix(name, "_docbridge")
}

// tableName returns YDB table name for the collection name with the given hash suffix.
func tableName(collectionName string, h uint32) string {
	name := objectNameCharacters.ReplaceAllString(strings.ToLower(collectionName), "_")

	suffix := fmt.Sprintf("_%08x", h)
	if l := maxObjectNameLength - len(suffix); len(name) > l {
		name = name[:l]
	}

	return name + suffix
}

func fnv32Hash(s string) uint32 {
	h := fnv.New32a()
	must.NotFail(h.Write([]byte(s)))

	return h.Sum32()
}
