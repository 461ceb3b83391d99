package engine

// ConversionDelta returns the formal tardies produced by the count-th raw
// occurrence under the given accumulation threshold and per-conversion
// yield. The floor-difference form yields exactly one conversion whenever
// the increment crosses a threshold multiple and zero otherwise, so N
// applications always total floor(N/threshold)*perConversion regardless of
// application order.
func ConversionDelta(count, threshold, perConversion int) int {
	if count < 1 || threshold < 1 || perConversion < 1 {
		return 0
	}
	return (count/threshold - (count-1)/threshold) * perConversion
}
