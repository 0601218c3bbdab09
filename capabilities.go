package pgxlate

// Capabilities defines which SQL features are supported by each dialect
var Capabilities = map[Dialect]map[Feature]bool{
	DialectPostgres: {
		FeatureArray:              true,
		FeatureJson:               true,
		FeatureDatePart:           true,
		FeatureTimeZoneConversion: true,
	},
	DialectMySQL: {
		FeatureArray:              false,
		FeatureJson:               true,
		FeatureDatePart:           false,
		FeatureTimeZoneConversion: false,
	},
	DialectSQLite: {
		FeatureArray:              false,
		FeatureJson:               false,
		FeatureDatePart:           false,
		FeatureTimeZoneConversion: false,
	},
}
