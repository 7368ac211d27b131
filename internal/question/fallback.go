package question

import "github.com/dqninh/classclash/internal/domain"

// Fallback returns the built-in question set used when generation fails.
// The set is fixed so a round stays reproducible regardless of grade or
// category; both are accepted only to keep the call shape symmetric.
func Fallback(_, _ string) []domain.Question {
	qs := make([]domain.Question, len(fallbackQuestions))
	copy(qs, fallbackQuestions)
	return qs
}

var fallbackQuestions = []domain.Question{
	{
		Text:          "What is the largest planet in our solar system?",
		Options:       []string{"Earth", "Mars", "Jupiter", "Saturn"},
		CorrectAnswer: "Jupiter",
	},
	{
		Text:          "How many continents are there on Earth?",
		Options:       []string{"5", "6", "7", "8"},
		CorrectAnswer: "7",
	},
	{
		Text:          "What gas do plants absorb from the air?",
		Options:       []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Hydrogen"},
		CorrectAnswer: "Carbon dioxide",
	},
	{
		Text:          "What is 12 multiplied by 12?",
		Options:       []string{"124", "144", "122", "164"},
		CorrectAnswer: "144",
	},
	{
		Text:          "Which ocean is the largest?",
		Options:       []string{"Atlantic", "Indian", "Arctic", "Pacific"},
		CorrectAnswer: "Pacific",
	},
	{
		Text:          "Who wrote Romeo and Juliet?",
		Options:       []string{"Charles Dickens", "William Shakespeare", "Mark Twain", "Jane Austen"},
		CorrectAnswer: "William Shakespeare",
	},
	{
		Text:          "What is the chemical symbol for water?",
		Options:       []string{"WO", "H2O", "CO2", "O2"},
		CorrectAnswer: "H2O",
	},
	{
		Text:          "How many sides does a hexagon have?",
		Options:       []string{"5", "6", "7", "8"},
		CorrectAnswer: "6",
	},
	{
		Text:          "Which animal is known as the king of the jungle?",
		Options:       []string{"Tiger", "Elephant", "Lion", "Leopard"},
		CorrectAnswer: "Lion",
	},
	{
		Text:          "What is the capital city of France?",
		Options:       []string{"London", "Berlin", "Madrid", "Paris"},
		CorrectAnswer: "Paris",
	},
	{
		Text:          "How many minutes are there in one hour?",
		Options:       []string{"50", "60", "90", "100"},
		CorrectAnswer: "60",
	},
	{
		Text:          "Which part of the plant makes food using sunlight?",
		Options:       []string{"Root", "Stem", "Leaf", "Flower"},
		CorrectAnswer: "Leaf",
	},
}
