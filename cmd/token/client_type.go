package token

// ClientType identifies which of Hub's three client types a token
// belongs to; it is stored in the session table's ct column. A session
// row, and every token minted against it, is scoped to exactly one
// ClientType.
type ClientType string

const (
	ClientTypeWeb    ClientType = "web"
	ClientTypeGame   ClientType = "game"
	ClientTypeMobile ClientType = "mobile"
)

// Valid reports whether ct is one of the three recognized client types.
func (ct ClientType) Valid() bool {
	switch ct {
	case ClientTypeWeb, ClientTypeGame, ClientTypeMobile:
		return true
	default:
		return false
	}
}
