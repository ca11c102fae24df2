package tokenregistry

import (
	"errors"
	"fmt"
)

// ErrUnknownToken is returned when a diff updates an address the previous state does not hold.
var ErrUnknownToken = errors.New("token not present in previous state")

// Patcher constructs a new registry state by applying a diff to a previous state.
// prevState is not mutated. Surviving tokens keep their order and additions are appended,
// so insertion order is preserved across patches.
func Patcher(prevState []Token, diff TokenSystemDiff) ([]Token, error) {
	deleted := make(map[string]struct{}, len(diff.Deletions))
	for _, address := range diff.Deletions {
		deleted[address] = struct{}{}
	}

	present := make(map[string]struct{}, len(prevState))
	for _, token := range prevState {
		present[token.Address] = struct{}{}
	}

	updated := make(map[string]Token, len(diff.Updates))
	for _, token := range diff.Updates {
		if _, ok := present[token.Address]; !ok {
			return nil, fmt.Errorf("%w: update for %s", ErrUnknownToken, token.Address)
		}
		updated[token.Address] = token
	}

	added := make(map[string]Token, len(diff.Additions))
	for _, token := range diff.Additions {
		added[token.Address] = token
	}

	finalState := make([]Token, 0, len(prevState)+len(diff.Additions))
	for _, token := range prevState {
		if _, gone := deleted[token.Address]; gone {
			continue
		}
		if u, ok := updated[token.Address]; ok {
			token = u
		}
		// an addition for an address already held replaces it in place
		if a, ok := added[token.Address]; ok {
			token = a
			delete(added, token.Address)
		}
		finalState = append(finalState, token)
	}

	for _, token := range diff.Additions {
		if _, pending := added[token.Address]; !pending {
			continue
		}
		delete(added, token.Address)
		finalState = append(finalState, token)
	}

	return finalState, nil
}
