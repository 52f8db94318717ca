package types

// Target pointer width. The front end models a 64-bit target only.
const pointerSize = 8

// SizeAlign computes size and alignment in bytes. The third result is false
// for dependent placeholders, structs without layout, and anything else the
// engine must not treat as sized.
func (c *Catalog) SizeAlign(id TypeID) (size, align int64, ok bool) {
	tt, found := c.Lookup(id)
	if !found {
		return 0, 0, false
	}
	switch tt.Kind {
	case KindUnit:
		return 0, 1, true
	case KindBool:
		return 1, 1, true
	case KindInt, KindUint:
		if tt.Width == WidthAny {
			return 8, 8, true
		}
		n := int64(tt.Width) / 8
		return n, n, true
	case KindFloat:
		n := int64(tt.Width) / 8
		return n, n, true
	case KindPointer, KindReference:
		return pointerSize, pointerSize, true
	case KindArray:
		esz, eal, eok := c.SizeAlign(tt.Elem)
		if !eok {
			return 0, 0, false
		}
		return esz * int64(tt.Count), eal, true
	case KindStruct:
		info, iok := c.StructInfo(id)
		if !iok || !info.HasLayout {
			return 0, 0, false
		}
		return info.Size, info.Align, true
	case KindAlias:
		resolved := c.ResolveAlias(id)
		if resolved == id {
			return 0, 0, false
		}
		return c.SizeAlign(resolved)
	default:
		return 0, 0, false
	}
}

// SizeOf is SizeAlign without the alignment.
func (c *Catalog) SizeOf(id TypeID) (int64, bool) {
	size, _, ok := c.SizeAlign(id)
	return size, ok
}
