package catalog

import "github.com/verte-zerg/tiltup/internal/model"

// Movies is the stock category.
var Movies = model.Category{
	Name: "Movies",
	Slug: "movies",
	WordList: []string{
		"Fast and the Furious",
		"Alien",
		"xXx: State of the Union",
		"Interstellar",
		"Color out of Space",
		"Die Hard",
		"Lord of the Rings: Return of the King",
		"Bill & Ted's Excellent Adventure",
		"Alien vs Predator",
		"Grand Budapest Hotel",
		"Moonrise Kingdom",
		"Pitch Dark",
		"Chronicles of Riddick",
	},
}

// Builtin returns the categories shipped with the binary.
func Builtin() []model.Category {
	return []model.Category{Movies}
}
