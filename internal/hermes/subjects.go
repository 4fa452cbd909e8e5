package hermes

const (
	SubjectPlaceIngest = "duel.place.ingest"
	SubjectStats       = "duel.stats"

	StreamName   = "DUEL_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

// Session lifecycle subjects
func SubjectSessionCreated(sessionID string) string   { return "duel.session." + sessionID + ".created" }
func SubjectSessionRefilled(sessionID string) string  { return "duel.session." + sessionID + ".refilled" }
func SubjectSessionFiltered(sessionID string) string  { return "duel.session." + sessionID + ".filtered" }
func SubjectSessionSelected(sessionID string) string  { return "duel.session." + sessionID + ".selected" }
func SubjectSessionExhausted(sessionID string) string { return "duel.session." + sessionID + ".exhausted" }
func SubjectSessionExpired(sessionID string) string   { return "duel.session." + sessionID + ".expired" }
