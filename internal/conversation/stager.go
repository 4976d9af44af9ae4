package conversation

// Stage selects a suggested question for review. The message log is not touched.
func (s *State) Stage(question string) {
	s.StagedQuestion = &question
}

// Staged reports the currently staged question, if any.
func (s *State) Staged() (string, bool) {
	if s.StagedQuestion == nil {
		return "", false
	}
	return *s.StagedQuestion, true
}

// Confirm hands back the staged question and clears it.
// Returns false when nothing is staged.
func (s *State) Confirm() (string, bool) {
	q, ok := s.Staged()
	s.StagedQuestion = nil
	return q, ok
}

// Discard drops the staged question without sending it.
func (s *State) Discard() {
	s.StagedQuestion = nil
}

// AcceptsFreeText reports whether typed input may be sent in this pass.
// A staged question blocks the free-text path until it is confirmed or discarded.
func (s *State) AcceptsFreeText() bool {
	return s.StagedQuestion == nil
}
