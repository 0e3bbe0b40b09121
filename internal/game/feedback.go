package game

import "github.com/robalobadob/wordle/apps/solver/internal/words"

// Compute scores guess against secret with the standard two-pass algorithm.
//
// Pass 1 marks exact matches Correct and claims those secret letters.
// Pass 2 walks the remaining guess letters left to right; each one is
// Present if an unclaimed occurrence of that letter is left in the secret
// (which it then claims), otherwise Absent.
//
// Every secret letter is claimed at most once and Correct wins over Present,
// so repeated letters are never double counted.
func Compute(guess, secret words.Word) Feedback {
	var fb Feedback
	var claimed [words.Length]bool

	for i := range guess {
		if guess[i] == secret[i] {
			fb[i] = Correct
			claimed[i] = true
		}
	}

	for i := range guess {
		if fb[i] == Correct {
			continue
		}
		for j := range secret {
			if !claimed[j] && secret[j] == guess[i] {
				fb[i] = Present
				claimed[j] = true
				break
			}
		}
	}
	return fb
}
