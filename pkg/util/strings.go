package util

import "strings"

func RemoveDuplicateStrings(strings []string, ignoreList []string) []string {
	presentStrings := make(map[string]bool)
	var list []string

	for _, ignoreString := range ignoreList {
		presentStrings[ignoreString] = true
	}

	for _, item := range strings {
		if _, value := presentStrings[item]; !value && item != "" {
			presentStrings[item] = true
			list = append(list, item)
		}
	}
	return list
}

// SplitCSV splits each value on commas so flags can be given either
// repeatedly or as one comma separated list.
func SplitCSV(values []string) []string {
	var split []string

	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			split = append(split, strings.TrimSpace(part))
		}
	}

	return RemoveDuplicateStrings(split, nil)
}

func TrimString(s string, length int) string {
	if len(s) <= length {
		return s
	}

	return s[:length]
}
