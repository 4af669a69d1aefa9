package analysis

import "fmt"

// MarketQuestions are asked about every project idea, in this order.
var MarketQuestions = []string{
	"Who is the target audience of this idea?",
	"What is the potential of this idea?",
	"What is the market size of this idea?",
	"What are the pitfalls of this idea?",
	"Are there any platforms like the idea, that already exist?",
}

// CodeQuestions returns the questions asked about every repository, in order.
// The fourth question checks the hackathon's required technologies.
func CodeQuestions(technologies string) []string {
	if technologies == "" {
		technologies = "(none declared)"
	}
	return []string{
		`Analyze the technologies and programming languages used in this project:
1. What is the primary programming language?
2. What frameworks or major libraries are being used?
3. What build tools or package managers are present?`,

		`Provide a concise project analysis:
1. What is the main purpose of this project?
2. What are the key features or functionalities?
3. How is the project structured (main components/modules)?`,

		`Evaluate the code quality based on these criteria:
1. Code organization and architecture
2. Documentation and comments
3. Error handling and edge cases
4. Coding standards and best practices
5. Test coverage (if present)`,

		fmt.Sprintf(`Analyze the project's technology stack:
1. Which of these specific technologies are used: %s?
2. How are they implemented in the project?
3. Are there any missing dependencies or incomplete implementations?`, technologies),

		`Identify potential improvements:
1. What are the main areas that need enhancement?
2. Are there any security concerns?
3. What scalability considerations should be addressed?`,
	}
}
