package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is a 128-bit account identity. The zero value is the default
// identity and is never a valid manager, strategy id or protocol reference.
type Identity = uuid.UUID

// ZeroIdentity is the default identity.
var ZeroIdentity = uuid.Nil

// PortfolioNamespace seeds portfolio address derivation.
var PortfolioNamespace = uuid.MustParse("6f3c2a4e-9b1d-5e7f-8a2c-4d6e8f0a1b3c")

const (
	portfolioSeed = "portfolio"
	strategySeed  = "strategy"
)

// IsZero reports whether id is the default identity.
func IsZero(id Identity) bool {
	return id == uuid.Nil
}

// PortfolioAddress derives the single portfolio address owned by manager.
func PortfolioAddress(manager Identity) Identity {
	return uuid.NewSHA1(PortfolioNamespace, seed(portfolioSeed, manager))
}

// StrategyAddress derives the address of strategyID under portfolio.
func StrategyAddress(portfolio, strategyID Identity) Identity {
	return uuid.NewSHA1(portfolio, seed(strategySeed, strategyID))
}

func seed(prefix string, id Identity) []byte {
	b := make([]byte, 0, len(prefix)+16)
	b = append(b, prefix...)
	return append(b, id[:]...)
}

// ParseIdentity parses a textual identity. The zero identity parses
// successfully; callers decide whether it is acceptable.
func ParseIdentity(s string) (Identity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return id, nil
}

// CompareIdentity orders identities bytewise.
func CompareIdentity(a, b Identity) int {
	for i := 0; i < len(a); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
