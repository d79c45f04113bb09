// Package frame renders the four lucky draw screens as data. Each route has a
// fixed layout; the draw state only fills in counts and the winner's name.
package frame

import (
	"fmt"

	"github.com/mcdev12/luckydraw/go/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Route names a screen
type Route string

const (
	RouteHome   Route = "/"
	RouteSpin   Route = "/spin"
	RouteReveal Route = "/reveal"
	RouteRemove Route = "/remove"
)

const (
	HomeTitle        = "🎡 Lucky Draw"
	SpinTitle        = "Spinning the wheel…"
	RevealTitle      = "🎉 Winner!"
	RemoveTitle      = "✅ Removed"
	NoWinner         = "No one"
	InputPlaceholder = "Enter names e.g. Alice, Bob, Charlie"
)

var printer = message.NewPrinter(language.English)

// Button is one choice offered on a screen. An empty Target posts back to
// the same route.
type Button struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Target Route  `json:"target,omitempty"`
}

// TextInput is a free-text field shown with the buttons
type TextInput struct {
	Placeholder string `json:"placeholder"`
}

// Frame is a rendered screen
type Frame struct {
	Route   Route      `json:"route"`
	Title   string     `json:"title"`
	Lines   []string   `json:"lines,omitempty"`
	Input   *TextInput `json:"input,omitempty"`
	Buttons []Button   `json:"buttons"`
}

// ParseRoute maps a path such as "spin" or "/spin" to its route.
func ParseRoute(path string) (Route, error) {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	switch r := Route(path); r {
	case RouteHome, RouteSpin, RouteReveal, RouteRemove:
		return r, nil
	default:
		return "", fmt.Errorf("unknown frame route %q", path)
	}
}

// ActionFor returns the transition a button press on route triggers. Home only
// reacts to its add and reset buttons; the other screens always run their own
// transition. The second result is false when nothing should change.
func ActionFor(route Route, buttonValue string) (models.Action, bool) {
	switch route {
	case RouteHome:
		switch models.Action(buttonValue) {
		case models.ActionAdd:
			return models.ActionAdd, true
		case models.ActionReset:
			return models.ActionReset, true
		}
		return "", false
	case RouteSpin:
		return models.ActionSpin, true
	case RouteReveal:
		return models.ActionReveal, true
	case RouteRemove:
		return models.ActionRemove, true
	}
	return "", false
}

// Render builds the screen for route from state
func Render(route Route, state models.DrawState) Frame {
	switch route {
	case RouteSpin:
		return Frame{
			Route: RouteSpin,
			Title: SpinTitle,
			Buttons: []Button{
				{Label: "🎁 Reveal Winner", Value: string(models.ActionReveal), Target: RouteReveal},
			},
		}

	case RouteReveal:
		winner := NoWinner
		if state.CurrentWinner != nil && *state.CurrentWinner != "" {
			winner = *state.CurrentWinner
		}
		return Frame{
			Route: RouteReveal,
			Title: RevealTitle,
			Lines: []string{winner},
			Buttons: []Button{
				{Label: "🗑️ Remove", Value: string(models.ActionRemove), Target: RouteRemove},
				{Label: "🏠 Home", Value: string(models.ActionHome), Target: RouteHome},
			},
		}

	case RouteRemove:
		return Frame{
			Route: RouteRemove,
			Title: RemoveTitle,
			Lines: []string{printer.Sprintf("Remaining: %d", len(state.Names))},
			Buttons: []Button{
				{Label: "🏠 Back", Value: string(models.ActionHome), Target: RouteHome},
				{Label: "▶️ Draw Again", Value: string(models.ActionSpin), Target: RouteSpin},
			},
		}

	default:
		return Frame{
			Route: RouteHome,
			Title: HomeTitle,
			Lines: []string{printer.Sprintf("Players: %d", len(state.Names))},
			Input: &TextInput{Placeholder: InputPlaceholder},
			Buttons: []Button{
				{Label: "➕ Add", Value: string(models.ActionAdd)},
				{Label: "▶️ GO", Value: string(models.ActionSpin), Target: RouteSpin},
				{Label: "🔄 Reset", Value: string(models.ActionReset)},
			},
		}
	}
}
