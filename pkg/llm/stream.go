package llm

// TokenKind discriminates the values a token stream produces.
type TokenKind string

const (
	// TokenDelta is an intermediate generation unit. Its payload is consumed
	// and discarded; only the terminal token carries the answer.
	TokenDelta TokenKind = "token"

	// TokenCompleteMessage carries the full final text and terminates
	// consumption.
	TokenCompleteMessage TokenKind = "completeMessage"
)

// Token is one unit produced by the streaming collaborator.
type Token struct {
	Kind    TokenKind
	Message string
}

// TokenStream yields tokens in generation order. Recv returns io.EOF once the
// stream finishes. Implementations must tolerate abandonment: Close may be
// called before the stream is drained.
type TokenStream interface {
	Recv() (Token, error)
	Close() error
}
