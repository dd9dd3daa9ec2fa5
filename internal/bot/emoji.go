package bot

import (
	"math/rand"
	"strings"
)

var animalEmojis = []string{
	"🐶", "🐱", "🦊", "🐻", "🐼", "🐨", "🦁", "🐯",
	"🐸", "🐵", "🦉", "🐺", "🦝", "🐰", "🦥", "🐢",
}

// FallbackText decorates the unknown-input reply with random animal emojis.
// Purely cosmetic; the dialog state is unaffected.
func FallbackText() string {
	picks := make([]string, 3)
	for i := range picks {
		picks[i] = animalEmojis[rand.Intn(len(animalEmojis))]
	}
	return strings.Join(picks, " ") + "\nI only understand the menu buttons. Pick an action:"
}
