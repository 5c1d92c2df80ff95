package align

var Mapping = mapping
