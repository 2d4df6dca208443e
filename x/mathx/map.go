package mathx

// MapU16 maps x in [inMin,inMax] to [outMin,outMax] with 32-bit intermediates.
// The division truncates. Inputs outside the range clamp to the out range.
func MapU16(x, inMin, inMax, outMin, outMax uint16) uint16 {
	if inMax == inMin {
		return outMin
	}
	// Clamp input first to avoid over/underflow in multiply.
	if x < inMin {
		return outMin
	}
	if x > inMax {
		return outMax
	}
	num := uint32(x-inMin) * uint32(outMax-outMin)
	den := uint32(inMax - inMin)
	return uint16(uint32(outMin) + num/den)
}

// ScaleUnit maps f in [0,1] onto [0,span] and truncates. Values outside the
// unit interval, and NaN, are clamped before conversion so the result never
// depends on float-to-int overflow behaviour.
func ScaleUnit(f float32, span int) int {
	if span <= 0 || f != f {
		return 0
	}
	v := Clamp(f*float32(span), 0, float32(span))
	return int(v)
}
