package config

import "strings"

func splitList(str string) []string {
	items := make([]string, 0)

	for _, item := range strings.Split(str, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		items = append(items, item)
	}

	return items
}
