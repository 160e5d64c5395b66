package probe

import (
	"context"
	"fmt"
)

// DynamicReader dumps the ELF dynamic section of a binary as text.
type DynamicReader interface {
	DynamicSection(ctx context.Context, path string) (string, error)
}

// ReadElf runs `readelf -d <path>`.
type ReadElf struct {
	Runner Runner
	Tool   string
}

// DynamicSection returns the readelf listing for path.
func (r ReadElf) DynamicSection(ctx context.Context, path string) (string, error) {
	out, err := r.Runner.Output(ctx, r.Tool, "-d", path)
	if err != nil {
		return "", fmt.Errorf("read dynamic section of %s: %w", path, err)
	}
	return string(out), nil
}
