package main

import (
	"fmt"

	"github.com/fenilsonani/devcache/pkg/utils"
)

// parseMinSize parses the --min-size flag
func parseMinSize(s string) (int64, error) {
	size, err := utils.ParseSize(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --min-size: %w", err)
	}
	return size, nil
}
