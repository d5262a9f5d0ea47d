package email

var stageSubjects = map[string]string{
	"calculator_day1":    "Your facility savings report is ready",
	"calculator_day3":    "How facilities like yours hit their savings target",
	"calculator_day7":    "Ready to see it live? Book a demo",
	"resource_day1":      "Your download, plus a quick-start checklist",
	"resource_day3":      "Three ways to put your guide to work",
	"resource_day7":      "Want a walkthrough? Book a demo",
	"newsletter_welcome": "Welcome to the FacilityIQ newsletter",
	"newsletter_day2":    "The numbers behind facility savings",
	"newsletter_day5":    "Case study: 28% lower operating costs",
	"newsletter_day8":    "Five quick wins for your facility",
	"newsletter_day12":   "See FacilityIQ in action",
}

const subjectSalesAlertFmt = "Hot lead: %s"
