package service

import (
	"math/rand/v2"

	"github.com/pageza/recipe-site/backend/internal/models"
)

// HomeFeedSize is the number of recipes shown on the home page.
const HomeFeedSize = 5

// SampleRecipes draws min(n, len(recipes)) distinct recipes uniformly at random
// using a partial Fisher-Yates shuffle on a copy. recipes is not modified.
func SampleRecipes(recipes []models.Recipe, n int, rng *rand.Rand) []models.Recipe {
	if n > len(recipes) {
		n = len(recipes)
	}
	if n <= 0 {
		return []models.Recipe{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pool := append([]models.Recipe(nil), recipes...)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
