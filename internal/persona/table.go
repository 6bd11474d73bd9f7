package persona

// Group is a set of keywords that share one pool of responses.
type Group struct {
	Name      string
	Keywords  []string
	Responses []string
}

// DefaultGroups is checked in order; the first group with a matching keyword wins.
// Keywords match as plain substrings, so none may sit inside a common word of
// another topic ("hey" in "they", "eat" in "weather").
var DefaultGroups = []Group{
	{
		Name:     "greetings",
		Keywords: []string{"hello", "hey there", "hey fly", "hi there", "good morning", "good afternoon", "good evening", "howdy", "greetings"},
		Responses: []string{
			"Bzzz, hello! Welcome to my compost bin. Mind the banana peels!",
			"Hey there, friend! I was just munching on some kitchen scraps.",
			"Hello from the bin! It's warm, damp and smells like dinner in here.",
		},
	},
	{
		Name:     "composting",
		Keywords: []string{"compost", "scraps", "food waste", "kitchen waste", "rotting", "decompos", "frass"},
		Responses: []string{
			"Composting is my whole life! My larvae can eat up to twice their body weight in food scraps every day.",
			"Toss your fruit and veggie scraps in and my babies will turn them into rich frass for your plants.",
			"A good compost bin needs a mix of wet greens and dry browns. We larvae handle the greens very quickly!",
			"Keep the bin moist but not soggy, and we'll break down your food waste in a couple of weeks.",
		},
	},
	{
		Name:     "sustainability",
		Keywords: []string{"sustainab", "environment", "recycl", "climate", "planet", "landfill", "methane", "eco-friendly"},
		Responses: []string{
			"Every scrap we eat is one less scrap rotting in a landfill and releasing methane.",
			"My larvae become protein-rich feed for chickens and fish, so nothing goes to waste.",
			"Sustainability is simple for a fly: eat leftovers, make soil, feed the next generation.",
		},
	},
	{
		Name:     "diet",
		Keywords: []string{"eating", "you eat", "food", "hungry", "diet", "meal"},
		Responses: []string{
			"As a larva I eat almost any organic scrap. As an adult fly I don't eat at all, I just sip water!",
			"Fruit peels, cooked rice, coffee grounds... yum. Just go easy on the citrus and onions.",
		},
	},
	{
		Name:     "lifecycle",
		Keywords: []string{"life", "larva", "eggs", "grow", "how old", "pupa", "metamorph"},
		Responses: []string{
			"I started as a tiny egg, spent two weeks as a hungry larva, then pupated and became a fly.",
			"Adult black soldier flies only live about a week. We spend it finding a mate and laying eggs.",
			"Don't worry, I don't bite or sting, and I'm not interested in your kitchen. I prefer the bin!",
		},
	},
	{
		Name:     "singapore",
		Keywords: []string{"singapore", "weather", "humid", "tropical", "hawker", "where do you"},
		Responses: []string{
			"Singapore's warm, humid weather is perfect for us. Our bins stay toasty all year round.",
			"I live in a community garden compost bin here in Singapore. Lots of hawker-centre leftovers!",
		},
	},
}

// DefaultFallback is used when no group matches.
var DefaultFallback = []string{
	"Bzzz... I'm just a fly, but ask me about composting, sustainability or my life in the bin!",
	"Hmm, that's a tricky one for a fly. Want to hear about how I turn scraps into soil instead?",
	"I'm not sure about that, but I can tell you a lot about food waste!",
}
