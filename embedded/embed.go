package embedded

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed boards/*.json
var boards embed.FS

// Board returns the bundled PlatformIO manifest for the named board.
func Board(name string) ([]byte, error) {
	data, err := boards.ReadFile("boards/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown board %q", name)
	}
	return data, nil
}

// Boards returns the names of all bundled board manifests.
func Boards() []string {
	entries, _ := fs.ReadDir(boards, "boards")

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}
