package loader

import "strings"

func loadText(data []byte) []Unit {
	return []Unit{{Content: strings.ToValidUTF8(string(data), "�")}}
}
