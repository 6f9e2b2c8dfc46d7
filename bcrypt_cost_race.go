//go:build race

package campus

import "golang.org/x/crypto/bcrypt"

// DefaultPasswordCost is lowered under the race detector.
const DefaultPasswordCost = bcrypt.MinCost

func passwordHashCost() int {
	return DefaultPasswordCost
}
