package entity

import "fmt"

// DefaultPalette - colors handed out to players in join order.
var DefaultPalette = []string{
	"#FF0000", "#0000FF", "#00FF00", "#FFA500",
	"#800080", "#FFFF00", "#00FFFF", "#FF00FF",
}

// Player is the identity assigned to one connected session.
type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultName - name used when a player joins without one.
func DefaultName(id int) string {
	return fmt.Sprintf("Player_%d", id)
}
