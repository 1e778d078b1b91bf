package structure

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParsePoscarFile reads a POSCAR/CONTCAR from disk.
func ParsePoscarFile(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ParsePoscar(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParsePoscar reads a VASP 5 style POSCAR: comment, scale factor, three
// lattice vectors, species line, count line, optional "Selective dynamics",
// coordinate mode, then one coordinate per site. Cartesian coordinates are
// converted to fractional.
func ParsePoscar(r io.Reader) (*Structure, error) {
	scanner := bufio.NewScanner(r)
	lines := make([]string, 0, 32)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read POSCAR: %w", err)
	}
	if len(lines) < 8 {
		return nil, fmt.Errorf("POSCAR too short: %d lines", len(lines))
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("bad scale factor %q: %w", strings.TrimSpace(lines[1]), err)
	}

	var rows [3][3]float64
	for i := 0; i < 3; i++ {
		fields := strings.Fields(lines[2+i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("bad lattice vector line %q", lines[2+i])
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad lattice component %q: %w", fields[j], err)
			}
			rows[i][j] = v * scale
		}
	}
	lattice := NewLattice(rows)

	speciesFields := strings.Fields(lines[5])
	if len(speciesFields) == 0 {
		return nil, fmt.Errorf("empty species line")
	}
	if _, err := strconv.Atoi(speciesFields[0]); err == nil {
		// VASP 4 files jump straight to counts with no species names.
		return nil, fmt.Errorf("POSCAR has no species names (VASP 4 format is not supported)")
	}
	countFields := strings.Fields(lines[6])
	if len(countFields) != len(speciesFields) {
		return nil, fmt.Errorf("%d species but %d counts", len(speciesFields), len(countFields))
	}
	counts := make([]int, len(countFields))
	total := 0
	for i, f := range countFields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad species count %q: %w", f, err)
		}
		counts[i] = n
		total += n
	}

	next := 7
	mode := strings.TrimSpace(lines[next])
	if len(mode) > 0 && (mode[0] == 'S' || mode[0] == 's') {
		// Selective dynamics; the coordinate mode follows.
		next++
		mode = strings.TrimSpace(lines[next])
	}
	if mode == "" {
		return nil, fmt.Errorf("missing coordinate mode line")
	}
	cartesian := mode[0] == 'C' || mode[0] == 'c' || mode[0] == 'K' || mode[0] == 'k'
	next++

	if len(lines) < next+total {
		return nil, fmt.Errorf("expected %d coordinate lines, found %d", total, len(lines)-next)
	}

	var inv [3][3]float64
	if cartesian {
		inv, err = invert3(rows)
		if err != nil {
			return nil, fmt.Errorf("singular lattice: %w", err)
		}
	}

	sites := make([]Site, 0, total)
	for gi, count := range counts {
		for k := 0; k < count; k++ {
			fields := strings.Fields(lines[next])
			next++
			if len(fields) < 3 {
				return nil, fmt.Errorf("bad coordinate line %q", strings.TrimSpace(lines[next-1]))
			}
			var coord [3]float64
			for j := 0; j < 3; j++ {
				v, err := strconv.ParseFloat(fields[j], 64)
				if err != nil {
					return nil, fmt.Errorf("bad coordinate %q: %w", fields[j], err)
				}
				coord[j] = v
			}
			if cartesian {
				coord = mulVec(inv, [3]float64{coord[0] * scale, coord[1] * scale, coord[2] * scale})
			}
			sites = append(sites, Site{Species: speciesFields[gi], Frac: coord})
		}
	}
	return New(lattice, sites), nil
}

// WritePoscarFile writes a structure to a POSCAR at path.
func WritePoscarFile(path string, s *Structure) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WritePoscar(f, s)
}

// WritePoscar emits a VASP 5 POSCAR in direct coordinates. Site order is
// preserved exactly; consecutive sites of the same species collapse into one
// species/count column, so a moment vector aligned with the structure stays
// aligned with the file.
func WritePoscar(w io.Writer, s *Structure) error {
	if len(s.Sites) == 0 {
		return fmt.Errorf("structure has no sites")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", s.Formula())
	fmt.Fprintf(bw, "1.0\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(bw, "  %16.10f %16.10f %16.10f\n", s.Lattice.Rows[i][0], s.Lattice.Rows[i][1], s.Lattice.Rows[i][2])
	}

	species, counts := speciesBlocks(s.Sites)
	fmt.Fprintf(bw, "  %s\n", strings.Join(species, " "))
	countStrs := make([]string, len(counts))
	for i, c := range counts {
		countStrs[i] = strconv.Itoa(c)
	}
	fmt.Fprintf(bw, "  %s\n", strings.Join(countStrs, " "))
	fmt.Fprintf(bw, "Direct\n")
	for _, site := range s.Sites {
		fmt.Fprintf(bw, "  %16.10f %16.10f %16.10f %s\n", site.Frac[0], site.Frac[1], site.Frac[2], site.Species)
	}
	return bw.Flush()
}

// speciesBlocks run-length encodes consecutive same-species sites.
func speciesBlocks(sites []Site) ([]string, []int) {
	var species []string
	var counts []int
	for _, site := range sites {
		n := len(species)
		if n > 0 && species[n-1] == site.Species {
			counts[n-1]++
			continue
		}
		species = append(species, site.Species)
		counts = append(counts, 1)
	}
	return species, counts
}

func invert3(m [3][3]float64) ([3][3]float64, error) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if det == 0 {
		return [3][3]float64{}, fmt.Errorf("zero determinant")
	}
	var inv [3][3]float64
	inv[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det
	inv[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det
	inv[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det
	inv[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det
	inv[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det
	inv[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det
	inv[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det
	inv[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det
	inv[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det
	return inv, nil
}

// mulVec computes row-vector times matrix: frac = cart * inverse(lattice).
func mulVec(m [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for j := 0; j < 3; j++ {
		out[j] = v[0]*m[0][j] + v[1]*m[1][j] + v[2]*m[2][j]
	}
	return out
}
