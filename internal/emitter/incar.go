package emitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// relaxationSets are the named base INCAR tag presets a workflow can select.
// User INCAR_Tags override individual entries.
var relaxationSets = map[string]map[string]interface{}{
	"MPRelaxSet": {
		"ALGO":   "Fast",
		"EDIFF":  1e-05,
		"ENCUT":  520,
		"IBRION": 2,
		"ISIF":   3,
		"ISMEAR": -5,
		"ISPIN":  2,
		"LORBIT": 11,
		"LREAL":  "Auto",
		"LWAVE":  false,
		"NELM":   100,
		"NSW":    99,
		"PREC":   "Accurate",
		"SIGMA":  0.05,
	},
	"MPStaticSet": {
		"ALGO":   "Normal",
		"EDIFF":  1e-06,
		"ENCUT":  520,
		"IBRION": -1,
		"ISMEAR": -5,
		"ISPIN":  2,
		"LCHARG": true,
		"LORBIT": 11,
		"LREAL":  false,
		"LWAVE":  false,
		"NELM":   100,
		"NSW":    0,
		"PREC":   "Accurate",
		"SIGMA":  0.05,
	},
}

// RelaxationSetNames lists the available presets, sorted.
func RelaxationSetNames() []string {
	names := make([]string, 0, len(relaxationSets))
	for name := range relaxationSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IncarBuilder renders INCAR files from a relaxation set preset, user tag
// overrides and per-variant moment vectors.
type IncarBuilder struct {
	tags map[string]interface{}
}

// NewIncarBuilder merges the named preset with the override tags. An unknown
// set name is a fatal configuration error.
func NewIncarBuilder(relaxationSet string, overrides map[string]interface{}) (*IncarBuilder, error) {
	base, ok := relaxationSets[relaxationSet]
	if !ok {
		return nil, fmt.Errorf("relaxation set %q not recognized (known: %s)",
			relaxationSet, strings.Join(RelaxationSetNames(), ", "))
	}
	tags := make(map[string]interface{}, len(base)+len(overrides))
	for k, v := range base {
		tags[k] = v
	}
	for k, v := range overrides {
		tags[strings.ToUpper(k)] = v
	}
	return &IncarBuilder{tags: tags}, nil
}

// Render emits the INCAR text for one variant. moments, aligned with the
// variant's POSCAR site order, becomes a compressed MAGMOM tag; an all-zero
// vector drops MAGMOM and forces ISPIN = 1.
func (b *IncarBuilder) Render(moments []float64) string {
	tags := make(map[string]string, len(b.tags)+1)
	for k, v := range b.tags {
		tags[k] = formatTag(v)
	}

	magnetic := false
	for _, m := range moments {
		if m != 0 {
			magnetic = true
			break
		}
	}
	if magnetic {
		tags["MAGMOM"] = CompressMagmoms(moments)
		tags["ISPIN"] = "2"
	} else {
		delete(tags, "MAGMOM")
		tags["ISPIN"] = "1"
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s = %s\n", k, tags[k])
	}
	return sb.String()
}

// CompressMagmoms renders a moment vector in the VASP n*v run-length form,
// e.g. [5 5 -5 -5 0 0 0] -> "2*5 2*-5 3*0".
func CompressMagmoms(moments []float64) string {
	if len(moments) == 0 {
		return ""
	}
	var parts []string
	run := 1
	for i := 1; i <= len(moments); i++ {
		if i < len(moments) && moments[i] == moments[i-1] {
			run++
			continue
		}
		value := formatFloat(moments[i-1])
		if run == 1 {
			parts = append(parts, value)
		} else {
			parts = append(parts, fmt.Sprintf("%d*%s", run, value))
		}
		run = 1
	}
	return strings.Join(parts, " ")
}

func formatTag(v interface{}) string {
	switch t := v.(type) {
	case bool:
		if t {
			return ".TRUE."
		}
		return ".FALSE."
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	if f == 0 {
		// Normalizes negative zero from sign-flipped moments.
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
