package maintenance

// fallbackCost is charged when an item has no table entry and no estimator
// result. Deliberately middle-of-the-road so unknown items neither dominate
// nor vanish from the deduction.
const fallbackCost = 150

// costTable holds deterministic retail costs (dollars) for the known service
// items. Labels are the identity keys used throughout the engine.
var costTable = map[string]float64{
	"oil change":           150,
	"engine air filter":    95,
	"cabin air filter":     80,
	"transmission service": 240,
	"brake fluid flush":    130,
	"coolant service":      170,
	"spark plugs":          320,
}
