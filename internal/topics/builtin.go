package topics

import "github.com/kinderslides/kinderslides/internal/model"

// Builtin returns the topics shipped with the tool.
func Builtin() *Catalog {
	c, err := NewCatalog(
		Topic{Name: "ABC", Items: items(
			"A - Apple", "apple cartoon",
			"B - Ball", "ball cartoon",
			"C - Cat", "cat cartoon",
			"D - Dog", "dog cartoon",
			"E - Elephant", "elephant cartoon",
			"F - Fish", "fish cartoon",
			"G - Giraffe", "giraffe cartoon",
			"H - House", "house cartoon",
			"I - Ice cream", "ice cream cartoon",
			"J - Jellyfish", "jellyfish cartoon",
			"K - Kite", "kite cartoon",
			"L - Lion", "lion cartoon",
			"M - Moon", "moon cartoon",
			"N - Nest", "nest cartoon",
			"O - Orange", "orange fruit cartoon",
			"P - Penguin", "penguin cartoon",
			"Q - Queen", "queen cartoon",
			"R - Rainbow", "rainbow cartoon",
			"S - Sun", "sun cartoon",
			"T - Tree", "tree cartoon",
			"U - Umbrella", "umbrella cartoon",
			"V - Violin", "violin cartoon",
			"W - Whale", "whale cartoon",
			"X - X-ray", "x-ray cartoon",
			"Y - Yacht", "yacht cartoon",
			"Z - Zebra", "zebra cartoon",
		)},
		Topic{Name: "Numbers 1-5", Items: items(
			"1 - One", "number 1 cartoon",
			"2 - Two", "number 2 cartoon",
			"3 - Three", "number 3 cartoon",
			"4 - Four", "number 4 cartoon",
			"5 - Five", "number 5 cartoon",
		)},
		Topic{Name: "Shapes", Items: items(
			"Circle", "circle shape cartoon",
			"Square", "square shape cartoon",
			"Triangle", "triangle shape cartoon",
			"Rectangle", "rectangle shape cartoon",
			"Star", "star shape cartoon",
			"Heart", "heart shape cartoon",
		)},
		Topic{Name: "Colors", Items: items(
			"Red", "red color cartoon",
			"Blue", "blue color cartoon",
			"Yellow", "yellow color cartoon",
			"Green", "green color cartoon",
			"Orange", "orange color cartoon",
			"Purple", "purple color cartoon",
			"Pink", "pink color cartoon",
			"Brown", "brown color cartoon",
		)},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// items pairs up name, hint arguments.
func items(pairs ...string) []model.Item {
	out := make([]model.Item, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.NewItem(pairs[i], pairs[i+1]))
	}
	return out
}
