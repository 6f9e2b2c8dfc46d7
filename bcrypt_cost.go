//go:build !race

package campus

// DefaultPasswordCost is the bcrypt cost used when none is configured.
const DefaultPasswordCost = 12

func passwordHashCost() int {
	return DefaultPasswordCost
}
