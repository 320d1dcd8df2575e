package figma

import (
	"fmt"
	"sort"
)

// ExtractColors walks the node tree and collects distinct fill colors as
// hex strings, or rgba() strings when alpha is below 1.
func ExtractColors(node map[string]any) []string {
	seen := make(map[string]struct{})
	collectColors(node, seen)

	colors := make([]string, 0, len(seen))
	for c := range seen {
		colors = append(colors, c)
	}
	sort.Strings(colors)
	return colors
}

func collectColors(node map[string]any, seen map[string]struct{}) {
	fills, _ := node["fills"].([]any)
	for _, f := range fills {
		fill, ok := f.(map[string]any)
		if !ok {
			continue
		}
		color, ok := fill["color"].(map[string]any)
		if !ok || len(color) == 0 {
			continue
		}
		r := int(numberField(color, "r") * 255)
		g := int(numberField(color, "g") * 255)
		b := int(numberField(color, "b") * 255)
		a := 1.0
		if v, ok := color["a"].(float64); ok {
			a = v
		}
		if a < 1 {
			seen[fmt.Sprintf("rgba(%d,%d,%d,%.2f)", r, g, b, a)] = struct{}{}
		} else {
			seen[fmt.Sprintf("#%02x%02x%02x", r, g, b)] = struct{}{}
		}
	}

	for _, child := range childNodes(node) {
		collectColors(child, seen)
	}
}

// ExtractFonts walks the node tree and collects distinct font usages,
// sorted by family, size, and weight.
func ExtractFonts(node map[string]any) []Font {
	seen := make(map[Font]struct{})
	collectFonts(node, seen)

	fonts := make([]Font, 0, len(seen))
	for f := range seen {
		fonts = append(fonts, f)
	}
	sort.Slice(fonts, func(i, j int) bool {
		if fonts[i].Family != fonts[j].Family {
			return fonts[i].Family < fonts[j].Family
		}
		if fonts[i].Size != fonts[j].Size {
			return fonts[i].Size < fonts[j].Size
		}
		return fonts[i].Weight < fonts[j].Weight
	})
	return fonts
}

func collectFonts(node map[string]any, seen map[Font]struct{}) {
	if style, ok := node["style"].(map[string]any); ok {
		if family, ok := style["fontFamily"].(string); ok && family != "" {
			font := Font{Family: family, Size: 16, Weight: 400}
			if v, ok := style["fontSize"].(float64); ok {
				font.Size = v
			}
			if v, ok := style["fontWeight"].(float64); ok {
				font.Weight = v
			}
			seen[font] = struct{}{}
		}
	}

	for _, child := range childNodes(node) {
		collectFonts(child, seen)
	}
}

var containerTypes = map[string]struct{}{
	"FRAME":     {},
	"COMPONENT": {},
	"INSTANCE":  {},
	"GROUP":     {},
}

// ExtractComponents collects container nodes in document order with their
// depth and bounding box.
func ExtractComponents(node map[string]any) []Component {
	return collectComponents(node, 0)
}

func collectComponents(node map[string]any, depth int) []Component {
	var components []Component

	nodeType, _ := node["type"].(string)
	if _, ok := containerTypes[nodeType]; ok {
		name, _ := node["name"].(string)
		component := Component{
			Name:          name,
			Type:          nodeType,
			Depth:         depth,
			ChildrenCount: len(childNodes(node)),
		}
		if bbox, ok := node["absoluteBoundingBox"].(map[string]any); ok {
			component.Width = numberField(bbox, "width")
			component.Height = numberField(bbox, "height")
		}
		components = append(components, component)
	}

	for _, child := range childNodes(node) {
		components = append(components, collectComponents(child, depth+1)...)
	}
	return components
}

func childNodes(node map[string]any) []map[string]any {
	raw, _ := node["children"].([]any)
	children := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if child, ok := c.(map[string]any); ok {
			children = append(children, child)
		}
	}
	return children
}

func numberField(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}
