package providers

import (
	"fmt"

	"changelogcheck/internal/data"
)

func unexpectedType(val any, key data.DependencyKey) error {
	return fmt.Errorf("unexpected type %T for %s", val, key)
}
