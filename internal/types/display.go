package types

import (
	"fmt"
	"strings"

	"vesper/internal/source"
)

// Display renders a type for diagnostics and instantiation keys. The
// rendering is deterministic: equal types always produce equal strings.
func (c *Catalog) Display(id TypeID, strs *source.Interner) string {
	tt, ok := c.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	var sb strings.Builder
	if tt.Quals&QualConst != 0 {
		sb.WriteString("const ")
	}
	if tt.Quals&QualVolatile != 0 {
		sb.WriteString("volatile ")
	}
	switch tt.Kind {
	case KindUnit:
		sb.WriteString("unit")
	case KindBool:
		sb.WriteString("bool")
	case KindInt:
		if tt.Width == WidthAny {
			sb.WriteString("int")
		} else {
			fmt.Fprintf(&sb, "int%d", tt.Width)
		}
	case KindUint:
		if tt.Width == WidthAny {
			sb.WriteString("uint")
		} else {
			fmt.Fprintf(&sb, "uint%d", tt.Width)
		}
	case KindFloat:
		fmt.Fprintf(&sb, "float%d", tt.Width)
	case KindArray:
		fmt.Fprintf(&sb, "%s[%d]", c.Display(tt.Elem, strs), tt.Count)
	case KindPointer:
		sb.WriteString("*")
		sb.WriteString(c.Display(tt.Elem, strs))
	case KindReference:
		if tt.Mutable {
			sb.WriteString("&mut ")
		} else {
			sb.WriteString("&")
		}
		sb.WriteString(c.Display(tt.Elem, strs))
	case KindStruct:
		if info, ok := c.StructInfo(id); ok {
			sb.WriteString(c.instanceLabel(info.Name, info.Key, strs))
		} else {
			sb.WriteString("<struct>")
		}
	case KindAlias:
		if info, ok := c.AliasInfo(id); ok {
			sb.WriteString(c.instanceLabel(info.Name, info.Key, strs))
		} else {
			sb.WriteString("<alias>")
		}
	case KindDependent:
		if info, ok := c.DependentInfo(id); ok && info.Display != "" {
			fmt.Fprintf(&sb, "<dependent %s>", info.Display)
		} else {
			sb.WriteString("<dependent>")
		}
	default:
		sb.WriteString("<invalid>")
	}
	return sb.String()
}

func (c *Catalog) instanceLabel(name source.StringID, key string, strs *source.Interner) string {
	label := "?"
	if strs != nil {
		if s, ok := strs.Lookup(name); ok {
			label = s
		}
	}
	if key == "" {
		return label
	}
	return key
}
