package smc

import "time"

// SessionType is an ICT kill-zone session classification, evaluated against
// US Eastern local time.
type SessionType string

const (
	SessionLondonOpen  SessionType = "LONDON_OPEN"  // 02:00-04:59 ET
	SessionNYOpen      SessionType = "NY_OPEN"      // 07:00-09:59 ET
	SessionLondonClose SessionType = "LONDON_CLOSE" // 10:00-11:59 ET
	SessionNYClose     SessionType = "NY_CLOSE"     // 14:00-15:59 ET
	SessionOff         SessionType = "OFF_SESSION"
)

var defaultActiveSessions = []SessionType{SessionLondonOpen, SessionNYOpen, SessionNYClose}

// KillZoneFilter classifies timestamps into ICT kill-zone sessions by
// converting to US Eastern time — the IANA tzdata entry handles EDT/EST
// transitions automatically.
type KillZoneFilter struct {
	loc            *time.Location
	activeSessions map[SessionType]bool
}

// NewKillZoneFilter builds a filter. A nil/empty activeSessions defaults to
// LONDON_OPEN, NY_OPEN, and NY_CLOSE.
func NewKillZoneFilter(activeSessions []SessionType) (*KillZoneFilter, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, err
	}
	if len(activeSessions) == 0 {
		activeSessions = defaultActiveSessions
	}
	set := make(map[SessionType]bool, len(activeSessions))
	for _, s := range activeSessions {
		set[s] = true
	}
	return &KillZoneFilter{loc: loc, activeSessions: set}, nil
}

// ClassifySession returns the session for timestamp, converted to US
// Eastern local time. Bars carrying no explicit zone are UTC by convention
// throughout this module.
func (f *KillZoneFilter) ClassifySession(timestamp time.Time) SessionType {
	et := timestamp.In(f.loc)
	hour := et.Hour()

	switch {
	case hour >= 2 && hour <= 4:
		return SessionLondonOpen
	case hour >= 7 && hour <= 9:
		return SessionNYOpen
	case hour >= 10 && hour <= 11:
		return SessionLondonClose
	case hour >= 14 && hour <= 15:
		return SessionNYClose
	default:
		return SessionOff
	}
}

// IsKillZone reports whether timestamp falls in one of the filter's active
// sessions.
func (f *KillZoneFilter) IsKillZone(timestamp time.Time) bool {
	return f.activeSessions[f.ClassifySession(timestamp)]
}
