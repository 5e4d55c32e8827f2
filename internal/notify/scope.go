package notify

import "strings"

// Scope identifies whose view of the calendar a diff run is computed for:
// either the admin (sees every therapist) or a single therapist. The scope is
// always passed explicitly; the engine never reads viewer identity from
// ambient state.
type Scope struct {
	therapistID string
}

func AdminScope() Scope {
	return Scope{}
}

func TherapistScope(id string) Scope {
	return Scope{therapistID: strings.TrimSpace(id)}
}

func (s Scope) IsAdmin() bool {
	return s.therapistID == ""
}

func (s Scope) TherapistID() string {
	return s.therapistID
}

// Key is the storage namespace for this viewer's persisted state.
func (s Scope) Key() string {
	if s.IsAdmin() {
		return "admin"
	}
	return "t:" + s.therapistID
}
