package workbook

import "strings"

// Standard sheet names in a case workbook.
const (
	SheetTimeline   = "Timeline"
	SheetSystems    = "Systems"
	SheetIndicators = "Indicators"
)

// Standard Timeline column headers.
const (
	ColEventSystem    = "Event System"
	ColRemoteSystem   = "Remote System"
	ColSuspectAccount = "Suspect Account"
)

// HeaderRow is the sheet row that holds column headers.
const HeaderRow = 1

// FirstDataRow is the sheet row of data index 0.
const FirstDataRow = 2

// SheetSpec names a sheet and its header row for a new workbook.
type SheetSpec struct {
	Name    string
	Headers []string
}

// DefaultSheets is the layout of a blank case workbook.
var DefaultSheets = []SheetSpec{
	{
		Name: SheetTimeline,
		Headers: []string{
			"Timestamp", "MITRE Tactic", "MITRE Techniques", ColEventSystem, ColRemoteSystem,
			"<->", ColSuspectAccount, "Activity", "Notes", "Visualize",
		},
	},
	{
		Name:    SheetSystems,
		Headers: []string{"HostName", "IPAddress", "SystemType", "Notes"},
	},
	{
		Name:    SheetIndicators,
		Headers: []string{"IndicatorType", "Indicator", "Notes"},
	},
}

// DefaultExt is the extension of case workbooks.
const DefaultExt = ".xlsx"

// Ext returns ext if it is a workbook extension excelize can write, and
// DefaultExt otherwise.
func Ext(ext string) string {
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return ext
	default:
		return DefaultExt
	}
}
