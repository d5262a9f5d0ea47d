package domain

// Track names for the built-in nurture tracks. The stage lists themselves are
// configuration; these names are the capture entry points.
const (
	TrackCalculator = "calculator"
	TrackResource   = "resource"
	TrackNewsletter = "newsletter"
)
