package checkout

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 9

// References hands out transaction references of the form tx_<unix-ms>_<9 base36 chars>.
// A reference is never handed out twice by the same generator.
type References struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	now     func() time.Time
	entropy func() string
}

func NewReferences() *References {
	return &References{
		seen:    make(map[string]struct{}),
		now:     time.Now,
		entropy: randomSuffix,
	}
}

func (g *References) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		ref := fmt.Sprintf("tx_%d_%s", g.now().UnixMilli(), g.entropy())
		if _, dup := g.seen[ref]; dup {
			continue
		}
		g.seen[ref] = struct{}{}
		return ref
	}
}

func randomSuffix() string {
	id := uuid.New()
	s := new(big.Int).SetBytes(id[:]).Text(36)
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return s[len(s)-suffixLen:]
}
