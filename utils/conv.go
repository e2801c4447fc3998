package utils

import (
	"fmt"
	"strings"
)

// SanitizeFileName replaces characters that can not be used in file names
func SanitizeFileName(name string) string {
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
}

// UniqueNames hands out names never returned before, appending counter to duplicates
type UniqueNames map[string]struct{}

func (un *UniqueNames) Get(name string) string {
	if *un == nil {
		*un = make(map[string]struct{})
	}
	result := name
	for i := 1; ; i++ {
		if _, exists := (*un)[result]; !exists {
			break
		}
		result = fmt.Sprintf("%s_%d", name, i)
	}
	(*un)[result] = struct{}{}
	return result
}
