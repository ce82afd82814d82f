package geometry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadOBJ parses a Wavefront OBJ stream into a TriangleMesh. Each `o` or
// `g` statement starts a boundary surface; surfaces receive sequential
// integer tags starting at 1, in order of first appearance, and repeated
// group names reattach to the existing tag. Faces seen before any group
// statement land on an implicit surface tagged 1.
//
// Faces with more than three vertices are fan-triangulated. Only geometry
// relevant to boundary classification is read; normals, texture
// coordinates, and materials are skipped.
func ReadOBJ(r io.Reader) (*TriangleMesh, error) {
	mesh := NewTriangleMesh()
	tagByName := make(map[string]int)
	nextTag := 1
	currentTag := 0 // allocated lazily on the first face

	surfaceFor := func(name string) int {
		if tag, ok := tagByName[name]; ok {
			return tag
		}
		tag := nextTag
		nextTag++
		tagByName[name] = tag
		mesh.SetSurfaceName(tag, name)
		return tag
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			coords := make([]float64, 3)
			for i := 0; i < 3; i++ {
				c, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad vertex coordinate %q: %w", lineNo, fields[i+1], err)
				}
				coords[i] = c
			}
			mesh.AddVertex(coords[0], coords[1], coords[2])

		case "o", "g":
			name := "default"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			currentTag = surfaceFor(name)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			if currentTag == 0 {
				currentTag = surfaceFor("default")
			}
			indices := make([]int, 0, len(fields)-1)
			for _, token := range fields[1:] {
				idx, err := parseOBJIndex(token, len(mesh.vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				indices = append(indices, idx)
			}
			// Fan triangulation around the first vertex.
			for i := 1; i+1 < len(indices); i++ {
				if err := mesh.AddTriangle(currentTag, indices[0], indices[i], indices[i+1]); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	if len(mesh.BoundarySurfaces()) == 0 {
		return nil, fmt.Errorf("obj stream contains no boundary surfaces")
	}
	return mesh, nil
}

// parseOBJIndex resolves one face vertex token ("7", "7/1", "7//3", "-1")
// into a zero-based vertex index. Negative indices count back from the most
// recently defined vertex, per the OBJ format.
func parseOBJIndex(token string, vertexCount int) (int, error) {
	if slash := strings.IndexByte(token, '/'); slash >= 0 {
		token = token[:slash]
	}
	raw, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q: %w", token, err)
	}
	switch {
	case raw > 0:
		if raw > vertexCount {
			return 0, fmt.Errorf("face index %d out of range (have %d vertices)", raw, vertexCount)
		}
		return raw - 1, nil
	case raw < 0:
		idx := vertexCount + raw
		if idx < 0 {
			return 0, fmt.Errorf("relative face index %d out of range (have %d vertices)", raw, vertexCount)
		}
		return idx, nil
	}
	return 0, fmt.Errorf("face index 0 is not valid in OBJ")
}
