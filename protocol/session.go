package protocol

import "github.com/graphbolt/driver/value"

// SessionState is the metadata-merge target for summary responses:
// bookmark, current result fields, server string, connection id
// suffix, failure data, and everything else appended verbatim.
type SessionState struct {
	Bookmark       string
	ResultFields   []string
	Server         string
	ConnectionID   string
	FailureData    map[string]*value.Value
	ResultMetadata map[string]*value.Value
}

func newSessionState() *SessionState {
	return &SessionState{ResultMetadata: map[string]*value.Value{}}
}

const maxConnectionIDLen = 256

// merge folds a summary's metadata dictionary into the session state
// per the recognized-key table; unknown keys land in ResultMetadata.
func (s *SessionState) merge(kind SummaryKind, meta map[string]*value.Value) {
	if kind == SummaryFailure {
		s.FailureData = map[string]*value.Value{}
		for _, k := range []string{"code", "message"} {
			if v, ok := meta[k]; ok {
				s.FailureData[k] = v
			}
		}
	}
	for k, v := range meta {
		switch k {
		case "bookmark":
			if v.Kind() == value.KindString {
				s.Bookmark = v.Str()
			}
		case "fields":
			s.ResultFields = stringListOf(v)
		case "server":
			if v.Kind() == value.KindString {
				s.Server = v.Str()
			}
		case "connection_id":
			if v.Kind() == value.KindString {
				id := s.ConnectionID + v.Str()
				if len(id) > maxConnectionIDLen {
					id = id[:maxConnectionIDLen]
				}
				s.ConnectionID = id
			}
		case "code", "message":
			// already folded into FailureData above when kind==Failure.
		default:
			s.ResultMetadata[k] = v
		}
	}
}

// reset clears failure_data; no other transition does this.
func (s *SessionState) reset() {
	s.FailureData = nil
}

func stringListOf(v *value.Value) []string {
	if v.Kind() != value.KindList {
		return nil
	}
	out := make([]string, 0, v.Size())
	for i := 0; i < v.Size(); i++ {
		out = append(out, v.ListAt(i).Str())
	}
	return out
}
