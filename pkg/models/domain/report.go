package domain

// Report represents a tabular summary of one aggregation
type Report struct {
	Title    string
	Scope    string
	Counters Counters
	Sections []ReportSection
}

// ReportSection represents a logical section in the report
type ReportSection struct {
	Title string
	// Counts marks sections whose values are respondent counts, not percentages.
	Counts  bool
	Details []ReportDetail
}

// ReportDetail represents one group of an aggregation
type ReportDetail struct {
	Name   string
	All    float64
	Female float64
	Male   float64
}
