package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Resource identifies one of the cacheable catalog lists.
type Resource string

const (
	ResourceProducts   Resource = "products"
	ResourceCategories Resource = "categories"
)

// SchemaVersion namespaces every cache key. Bump it whenever the serialized
// shape of a record changes so entries written by older builds are never read
// back as hits; they expire on their own TTL.
const SchemaVersion = 1

// ErrUnknownResource is returned for resources missing from the key table.
var ErrUnknownResource = errors.New("catalog: unknown resource")

// resourceKeys is the only mapping from resource to cache key.
var resourceKeys = map[Resource]string{
	ResourceProducts:   "all_products",
	ResourceCategories: "all_categories",
}

// Resources lists every cacheable resource in a stable order.
func Resources() []Resource {
	return []Resource{ResourceProducts, ResourceCategories}
}

// ParseResource converts user input such as a route parameter into a Resource.
func ParseResource(value string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := resourceKeys[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, value)
	}
	return r, nil
}

// Key returns the versioned cache key for r.
func (r Resource) Key() (string, error) {
	base, ok := resourceKeys[r]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, string(r))
	}
	return fmt.Sprintf("v%d:%s", SchemaVersion, base), nil
}

func (r Resource) String() string {
	return string(r)
}

// ValidateKeys checks the key table at start-up: every resource has a
// non-empty key without whitespace and no two resources share a key.
func ValidateKeys() error {
	return validateKeyTable(Resources(), resourceKeys)
}

func validateKeyTable(resources []Resource, table map[Resource]string) error {
	if len(table) != len(resources) {
		return fmt.Errorf("catalog: key table has %d entries for %d resources", len(table), len(resources))
	}
	seen := make(map[string]Resource, len(table))
	for _, r := range resources {
		key, ok := table[r]
		if !ok {
			return fmt.Errorf("%w: %q has no cache key", ErrUnknownResource, string(r))
		}
		if strings.TrimSpace(key) == "" || strings.ContainsAny(key, " \t\r\n") {
			return fmt.Errorf("catalog: invalid cache key %q for %q", key, string(r))
		}
		if other, dup := seen[key]; dup {
			return fmt.Errorf("catalog: cache key %q shared by %q and %q", key, string(other), string(r))
		}
		seen[key] = r
	}
	return nil
}
