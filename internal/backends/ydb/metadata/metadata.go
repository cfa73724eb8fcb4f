package metadata

import (
	"encoding/json"

	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

const (
	// DefaultColumn is a column name for the whole document.
	DefaultColumn = "_jsonb"

	// IDColumn is a primary key column holding the document id.
	IDColumn = "id"

	// CreatedAtColumn holds document creation time in milliseconds, used for ordering.
	CreatedAtColumn = "created_at"
)

// Collection represents collection metadata.
//
// Collection value should be immutable to avoid data races.
// Use [deepCopy] to replace the whole value instead of modifying fields of existing value.
type Collection struct {
	Name      string `json:"name"`
	UUID      string `json:"uuid"`
	TableName string `json:"table"`
}

// deepCopy returns a deep copy.
func (c *Collection) deepCopy() *Collection {
	if c == nil {
		return nil
	}

	return &Collection{
		Name:      c.Name,
		UUID:      c.UUID,
		TableName: c.TableName,
	}
}

// marshal returns a JSON representation stored in the metadata table.
func (c *Collection) marshal() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return b, nil
}

// unmarshal sets collection metadata from its JSON representation.
func (c *Collection) unmarshal(b []byte) error {
	if err := json.Unmarshal(b, c); err != nil {
		return lazyerrors.Error(err)
	}

	if c.Name == "" {
		return lazyerrors.New("collection name is empty")
	}

	if c.TableName == "" {
		return lazyerrors.New("table name is empty")
	}

	return nil
}
