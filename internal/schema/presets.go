package schema

type preset struct {
	schema Schema
	kind   string
	notes  string
}

var activeCallFields = []string{"nature_of_call", "unit_number", "block", "location", "beat"}

// policeIncidentFields is the subset of the 86 qv6i-rri7 columns the tooling reads.
var policeIncidentFields = []string{
	"incidentnum", "servyr", "servnumid", "watch", "signal", "offincident", "premise",
	"objattack", "incident_address", "apt", "zip_code", "city", "state", "beat",
	"division", "sector", "district", "ra", "date1", "time1", "year1", "month1", "day1",
	"date2_of_occurrence_2", "time2", "reporteddate", "edate", "etime", "cfs_number",
	"callreceived", "callorgdate", "calldispatched", "callcleared", "status", "ucr_disp",
	"victimtype", "comprace", "compethnicity", "compsex", "compage", "involvement",
	"ro1name", "ro2name", "followup1", "followup2", "elenum", "weaponused", "gang",
	"drug", "ucr_offense", "ucr_offdesc", "ucr_code", "nibrs_crime", "nibrs_crime_category",
	"nibrs_crimeagainst", "nibrs_code", "nibrs_group", "nibrs_type", "nibrs",
	"geocoded_column", "x_coordinate", "y_cordinate",
}

var presets = map[string]preset{
	PresetPoliceIncidents: {
		schema: Schema{
			DatasetID:       "qv6i-rri7",
			Name:            "Police Incidents",
			Description:     "Historical police incidents from June 2014 to present (86 columns)",
			Domain:          DefaultDomain,
			DatetimeField:   "date1",
			LocationField:   "geocoded_column",
			BeatField:       "beat",
			DivisionField:   "division",
			OffenseField:    "offincident",
			UCRField:        "ucr_offense",
			ExtendedFilters: true,
			fields:          policeIncidentFields,
		},
		kind:  "historical",
		notes: "2014–present; has timestamps, coordinates, NIBRS/UCR, etc.",
	},
	PresetActiveCallsNortheast: {
		schema: Schema{
			DatasetID:     "juse-v5tw",
			Name:          "Active Calls - Northeast Division",
			Description:   "Real-time active police calls for Northeast Division (5 columns, updated every few minutes)",
			Domain:        DefaultDomain,
			LocationField: "location",
			BeatField:     "beat",
			fields:        activeCallFields,
		},
		kind:  "active",
		notes: "Real-time active calls (Northeast division); no timestamps/coords.",
	},
	PresetActiveCallsAll: {
		schema: Schema{
			DatasetID:     "9fxf-t2tr",
			Name:          "Dallas Police Active Calls",
			Description:   "Real-time active police calls for all Dallas divisions",
			Domain:        DefaultDomain,
			LocationField: "location",
			BeatField:     "beat",
			fields:        activeCallFields,
		},
		kind:  "active",
		notes: "Real-time citywide active calls; no timestamps/coords.",
	},
}
