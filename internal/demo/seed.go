package demo

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/models"
)

var (
	orgSeed = []models.Item{
		{"id": "o1", "name": "Acme", "plan": "enterprise", "seats": float64(250)},
		{"id": "o2", "name": "Globex", "plan": "team", "seats": float64(40)},
		{"id": "o3", "name": "Initech", "plan": "free", "seats": float64(5)},
		{"id": "o4", "name": "Umbrella", "plan": "enterprise", "seats": float64(900)},
	}

	teamSeed = []models.Item{
		{"id": "t1", "name": "Platform", "org_id": "o1"},
		{"id": "t2", "name": "Billing", "org_id": "o1"},
		{"id": "t3", "name": "Support", "org_id": "o2"},
		{"id": "t4", "name": "Research", "org_id": "o4"},
	}
)

var (
	firstNames = []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Dennis", "Margaret", "Alan", "Frances", "Edsger"}
	lastNames  = []string{"Lovelace", "Hopper", "Torvalds", "Thompson", "Liskov", "Ritchie", "Hamilton", "Turing", "Allen", "Dijkstra"}
	roles      = []string{"admin", "editor", "viewer"}
)

// userSeed generates enough users to page through
func userSeed() []models.Item {
	var users []models.Item
	n := 0
	for _, last := range lastNames {
		for _, first := range firstNames[:6] {
			n++
			org := orgSeed[n%len(orgSeed)]["id"].(string)
			teams := []any{}
			if n%3 != 0 {
				teams = append(teams, teamSeed[n%len(teamSeed)]["id"])
			}
			if n%5 == 0 {
				teams = append(teams, teamSeed[(n+1)%len(teamSeed)]["id"])
			}
			users = append(users, models.Item{
				"id":         fmt.Sprintf("u%02d", n),
				"name":       first + " " + last,
				"email":      fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
				"age":        float64(18 + (n*7)%50),
				"role":       roles[n%len(roles)],
				"org_id":     org,
				"team_ids":   teams,
				"created_at": fmt.Sprintf("2024-%02d-%02d", 1+n%12, 1+n%28),
			})
		}
	}
	return users
}
