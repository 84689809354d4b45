package helpers

// IfElse returns valueIfTrue or valueIfFalse depending on isTrue.
func IfElse[V any](isTrue bool, valueIfTrue, valueIfFalse V) V {
	if isTrue {
		return valueIfTrue
	}
	return valueIfFalse
}

// CopyOf returns a shallow copy of a slice, or nil for a nil slice.
func CopyOf[V any](s []V) []V {
	if s == nil {
		return nil
	}
	return append([]V(nil), s...)
}
