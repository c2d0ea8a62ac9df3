package paramsrc

// AttributeMap is a flat bag of parameter values keyed relative to one
// joint's prefix, in the style of go.viam.com/rdk's control.AttributeMap
// (see control/pid.go's Attribute.Float64("Ki", 0.0)) and api.AttributeMap.
type AttributeMap map[string]interface{}

// Has reports whether name is present in the map.
func (am AttributeMap) Has(name string) bool {
	_, ok := am[name]
	return ok
}

// Float64 returns the float64 value for name, or def if absent or not a
// float64.
func (am AttributeMap) Float64(name string, def float64) float64 {
	v, ok := am[name]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return f
}

// Bool returns the bool value for name, or def if absent or not a bool.
func (am AttributeMap) Bool(name string, def bool) bool {
	v, ok := am[name]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// String returns the string value for name, or def if absent or not a
// string.
func (am AttributeMap) String(name string, def string) string {
	v, ok := am[name]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
