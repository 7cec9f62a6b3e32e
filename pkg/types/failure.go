package types

// ParserFailure is the structured form of a collaborator failure handed to
// the classifier. Kind names the parser or subsystem that failed; Message is
// the failure text. Matching on these is a heuristic, not a contract.
type ParserFailure struct {
	Kind    string // "zip", "ooxml", "ole", "pdf", "7z", "io"
	Message string
	Err     error
}

// NewParserFailure wraps err under a parser kind.
func NewParserFailure(kind string, err error) ParserFailure {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return ParserFailure{Kind: kind, Message: msg, Err: err}
}
