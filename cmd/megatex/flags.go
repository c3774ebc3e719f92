package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"megatex/internal/quote"
)

// choiceFlag collects repeated NAME=a/b[/c] values.
type choiceFlag struct {
	parts  int
	values map[string][]string
}

func newChoiceFlag(parts int) *choiceFlag {
	return &choiceFlag{parts: parts, values: map[string][]string{}}
}

func (f *choiceFlag) String() string {
	if f == nil {
		return ""
	}
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+strings.Join(f.values[k], "/"))
	}
	return strings.Join(out, ",")
}

func (f *choiceFlag) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected NAME=value, got %q", raw)
	}
	parts := strings.Split(value, "/")
	if len(parts) != f.parts {
		return fmt.Errorf("%s: expected %d parts separated by '/', got %q", name, f.parts, value)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	f.values[name] = parts
	return nil
}

type selectionFlags struct {
	design     *string
	category   *string
	width      *float64
	height     *float64
	quantity   *int
	multiplier *float64
	split      *bool
	fabrics    *choiceFlag
	materials  *choiceFlag
}

func addSelectionFlags(fs *flag.FlagSet) *selectionFlags {
	s := &selectionFlags{
		design:     fs.String("design", "", "design name"),
		category:   fs.String("category", "", "curtain type the design is listed under"),
		width:      fs.Float64("width", 0, "window width in meters"),
		height:     fs.Float64("height", 0, "height in meters"),
		quantity:   fs.Int("qty", 1, "number of curtains"),
		multiplier: fs.Float64("multiplier", 0, "width multiplier override (0 = design default)"),
		split:      fs.Bool("split", false, "curtain split in two panels"),
		fabrics:    newChoiceFlag(3),
		materials:  newChoiceFlag(2),
	}
	fs.Var(s.fabrics, "fabric", `fabric slot choice "TELA 1=Type/Ref/Color" (repeatable)`)
	fs.Var(s.materials, "material", `material variant "NAME=Ref/Color" (repeatable)`)
	return s
}

func (s *selectionFlags) selection() quote.Selection {
	sel := quote.Selection{
		Design:     *s.design,
		Category:   *s.category,
		Width:      *s.width,
		Height:     *s.height,
		Quantity:   *s.quantity,
		Multiplier: *s.multiplier,
		Split:      *s.split,
	}
	if len(s.fabrics.values) > 0 {
		sel.Fabrics = map[string]quote.FabricChoice{}
		for slot, p := range s.fabrics.values {
			sel.Fabrics[slot] = quote.FabricChoice{Type: p[0], Ref: p[1], Color: p[2]}
		}
	}
	if len(s.materials.values) > 0 {
		sel.Materials = map[string]quote.VariantChoice{}
		for name, p := range s.materials.values {
			sel.Materials[name] = quote.VariantChoice{Ref: p[0], Color: p[1]}
		}
	}
	return sel
}
