// Generation file naming and directory listing.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jptalukdar/kvs/internal/kvserr"
)

// generationPath returns the path of generation g's log file inside dir.
func generationPath(dir string, g uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.json", g))
}

// listGenerations returns every generation present in dir, sorted
// ascending. Files not matching "<uint>.json" are ignored.
func listGenerations(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, kvserr.Io("list generations", err)
	}

	var gens []uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		numPart := strings.TrimSuffix(name, ".json")
		g, err := strconv.ParseUint(numPart, 10, 64)
		if err != nil {
			continue // non-matching file name, ignored
		}
		gens = append(gens, g)
	}

	sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
	return gens, nil
}

// nextGeneration picks the writer generation: one past the highest
// existing generation, or 0 if the directory holds none.
func nextGeneration(gens []uint64) uint64 {
	if len(gens) == 0 {
		return 0
	}
	return gens[len(gens)-1] + 1
}
