package emoji

import "math/rand"

// addRules is the fixed set of offsets a login may be asked to add to the
// key emoji's grid position.
var addRules = []int{1, 2, 3, 5, 7}

// AddRules returns a copy of the offset set.
func AddRules() []int {
	return append([]int(nil), addRules...)
}

// RollOffset draws a fresh offset, used at login and again at each round
// transition.
func RollOffset() int {
	return addRules[rand.Intn(len(addRules))]
}

// Derive computes the expected numeric answer for a key position and offset.
func Derive(correctPos, offset int) int {
	return correctPos + offset
}
