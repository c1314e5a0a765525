package advisor

import "context"

// Scripted returns canned suggestions in order. Tests use it to drive the
// workflow down the advisor-resolved and advisor-failed paths
// deterministically.
type Scripted struct {
	Responses []ScriptedResponse
	calls     int
}

// ScriptedResponse is one canned advisor answer.
type ScriptedResponse struct {
	Suggestion string
	Err        error
}

func (s *Scripted) GetSuggestion(ctx context.Context, description string) (string, error) {
	if s.calls >= len(s.Responses) {
		return "", ErrUnavailable
	}
	resp := s.Responses[s.calls]
	s.calls++
	return resp.Suggestion, resp.Err
}

// Calls reports how many times the advisor was consulted.
func (s *Scripted) Calls() int { return s.calls }
