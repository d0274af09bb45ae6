package catalog

import types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"

func mcq(id, content string, options []string, answer string, difficulty float64, blooms string, concepts ...string) types.Question {
	return types.Question{
		ID:            id,
		Content:       content,
		Options:       options,
		CorrectAnswer: answer,
		Metadata: types.QuestionMetadata{
			Concepts:       concepts,
			Difficulty:     difficulty,
			Discrimination: 1,
			BloomsLevel:    blooms,
			Format:         "mcq",
		},
	}
}

// DefaultQuestions is the built-in starter bank used when no catalog is configured.
func DefaultQuestions() []types.Question {
	return []types.Question{
		mcq("q1", "What is the index of the first element in an array?",
			[]string{"0", "1", "-1", "Depends on language"}, "0", 0.2, "knowledge", "arrays"),
		mcq("q2", "Which operation adds an element to the end of a list in Python?",
			[]string{"append()", "push()", "add()", "insert()"}, "append()", 0.3, "application", "arrays", "lists"),
		mcq("q3", "What is the time complexity of accessing an array element by index?",
			[]string{"O(1)", "O(n)", "O(log n)", "O(n^2)"}, "O(1)", 0.5, "analysis", "arrays", "complexity"),
		mcq("q4", "Recursive functions must have a...?",
			[]string{"Base case", "Loop", "Global variable", "Pointer"}, "Base case", 0.4, "knowledge", "recursion"),
		mcq("q5", "What happens if a recursive function lacks a base case?",
			[]string{"Stack Overflow", "Heap Overflow", "Compilation Error", "Nothing"}, "Stack Overflow", 0.6, "application", "recursion"),
		mcq("q6", "In a sorted array of size N, how many comparisons does Binary Search take in worst case?",
			[]string{"N", "log N", "1", "N^2"}, "log N", 0.4, "analysis", "arrays", "complexity"),
		mcq("q7", "Which data structure uses LIFO (Last In First Out)?",
			[]string{"Queue", "Stack", "Array", "Tree"}, "Stack", 0.3, "knowledge", "recursion"),
		mcq("q8", "What is the result of [1, 2] + [3] in Python?",
			[]string{"[1, 2, 3]", "[1, 2, [3]]", "Error", "[4, 2]"}, "[1, 2, 3]", 0.3, "application", "arrays"),
		mcq("q9", "Which sorting algorithm has O(N^2) average complexity?",
			[]string{"Merge Sort", "Quick Sort", "Bubble Sort", "Heap Sort"}, "Bubble Sort", 0.5, "knowledge", "complexity", "arrays"),
		mcq("q10", "Tail recursion is an optimization that...",
			[]string{"Reduces stack usage", "Increases speed", "Uses heap", "Avoids loops"}, "Reduces stack usage", 0.8, "synthesis", "recursion"),
		mcq("q11", "What is the space complexity of an iterative array traversal?",
			[]string{"O(1)", "O(N)", "O(log N)", "O(N^2)"}, "O(1)", 0.4, "analysis", "complexity", "arrays"),
		mcq("q12", "Can an array store elements of different types in C?",
			[]string{"Yes", "No", "Only if pointers", "Depends on compiler"}, "No", 0.3, "knowledge", "arrays"),
	}
}

// Default returns the built-in bank as a Static catalog.
func Default() *Static {
	s, err := NewStatic(DefaultQuestions())
	if err != nil {
		panic(err)
	}
	return s
}
