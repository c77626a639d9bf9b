package reserve

import (
	"regexp"

	"github.com/example/slot-booker/internal/attempter"
	"github.com/example/slot-booker/internal/surface"
)

// Selectors describe the schedule site's markup.
type Selectors struct {
	Username    string
	Password    string
	LoginButton surface.Locator
	// LoggedInURL matches the page reached after a successful login.
	LoggedInURL *regexp.Regexp

	// DayColumns matches one element per calendar day; a week view renders
	// seven of them, Sunday first.
	DayColumns string
	// Cards matches session cards inside a day column.
	Cards string
	// DetailLink is looked up inside the chosen card.
	DetailLink string

	// Controls match their button names exactly; "Reserve" must not hit
	// "Cancel Reservation".
	Controls attempter.Controls
}

func DefaultSelectors() Selectors {
	return Selectors{
		Username:    "#account-username",
		Password:    "#account-password",
		LoginButton: surface.Role("button", "Log In"),
		LoggedInURL: regexp.MustCompile(`/(?:account|home|clubs)(?:/|\.html|$)`),
		DayColumns:  ".calendar .day",
		Cards:       ".planner-entry",
		DetailLink:  `a[href*="/details"]`,
		Controls: attempter.Controls{
			Reserve:  surface.ExactRole("button", "Reserve"),
			Finish:   surface.ExactRole("button", "Finish"),
			Waitlist: surface.ExactRole("button", "Add to Waitlist"),
			Banner:   surface.Role("button", "Accept All"),
		},
	}
}
