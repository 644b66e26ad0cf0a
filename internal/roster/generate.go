package roster

import "fmt"

var (
	firstNames = []string{"John", "Jane", "Ahmed", "Fatima", "David", "Sarah", "Mohammed", "Aisha"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}
)

// DefaultDatasetSize is the size of the demo dataset.
const DefaultDatasetSize = 100

// Generate returns n deterministic members. Member i (1-based) has ID
// "member-i", email "useri@example.com", and cycles through names and roles.
// Identical n always yields identical output.
func Generate(n int) []Member {
	if n < 0 {
		n = 0
	}
	members := make([]Member, n)
	for i := range members {
		avatar := fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%d", i)
		members[i] = Member{
			ID:     fmt.Sprintf("member-%d", i+1),
			Name:   firstNames[i%len(firstNames)] + " " + lastNames[i%len(lastNames)],
			Email:  fmt.Sprintf("user%d@example.com", i+1),
			Role:   Roles[i%len(Roles)],
			Avatar: &avatar,
		}
	}
	return members
}
