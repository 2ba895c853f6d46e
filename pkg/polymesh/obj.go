package polymesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// LoadOBJ reads a Wavefront OBJ file. The mesh is named after the file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseOBJ(name, f)
}

// ParseOBJ reads vertex positions and polygon faces from OBJ text. Only
// "v", "f" and "o" statements are interpreted; texture coordinates,
// normals and materials are ignored. Face indices may be negative
// (relative to the end of the vertex list).
func ParseOBJ(name string, r io.Reader) (*Mesh, error) {
	var positions []v3.Vec
	var faces [][]int

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "o":
			if len(fields) > 1 {
				name = fields[1]
			}
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: vertex needs 3 coordinates", lineNo)
			}
			var xyz [3]float64
			for i := range xyz {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				xyz[i] = f
			}
			positions = append(positions, v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "f":
			face := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := strconv.Atoi(strings.SplitN(ref, "/", 2)[0])
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				// OBJ indices start at 1; negative ones count back from the end.
				if idx < 0 {
					idx = len(positions) + idx
				} else {
					idx--
				}
				face = append(face, idx)
			}
			faces = append(faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(name, positions, faces)
}
