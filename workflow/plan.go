package workflow

import (
	"github.com/marinxz/n-playwright-3.9/browser"
	"github.com/marinxz/n-playwright-3.9/location"
)

// State is a node of the retrieval state machine. States are visited in
// declaration order and never re-entered.
type State string

const (
	StateStart             State = "Start"
	StateLoggingIn         State = "LoggingIn"
	StateAwaitIndex        State = "AwaitIndex"
	StateOpeningAdminMenu  State = "OpeningAdminMenu"
	StateAwaitAdmin        State = "AwaitAdmin"
	StateOpeningManageData State = "OpeningManageData"
	StateAwaitManageData   State = "AwaitManageData"
	StateDownloading       State = "Downloading"
	StateValidating        State = "Validating"
	StateRelocating        State = "Relocating"
	StateLoggingOut        State = "LoggingOut"
	StateDone              State = "Done"
	StateFailed            State = "Failed"
)

// Element descriptors of the admin console.
var (
	EmailField     = browser.Placeholder("E-mail")
	PasswordField  = browser.Placeholder("Password")
	SignInButton   = browser.Text("Sign In").First()
	ProfileIcon    = browser.CSS(".fa").First()
	AdminMenuItem  = browser.CSS(`span:has-text("Admin")`)
	ManageDataLink = browser.Text("Manage Data")
	BackupTrigger  = browser.Text("Click Here To Backup Your Database")
	LogoutLink     = browser.Text("Logout").Nth(1)
)

// Step is one row of the navigation table: optionally navigate, perform
// the interactions in order, then optionally wait for a checkpoint.
type Step struct {
	State        State
	Goto         string
	Interactions []browser.Interaction
	Checkpoint   string
}

// Plan is the full UI script for one location.
type Plan struct {
	// Navigation runs from the login page to the manage-data page.
	Navigation []Step

	// Download is clicked while a download is expected.
	Download browser.Interaction

	// Logout runs after the artifact has been relocated.
	Logout Step
}

// NewPlan builds the UI script for cfg.
func NewPlan(cfg *location.Config) Plan {
	return Plan{
		Navigation: []Step{
			{
				State: StateLoggingIn,
				Goto:  cfg.LoginURL,
				Interactions: []browser.Interaction{
					browser.Fill(EmailField, cfg.User),
					browser.Fill(PasswordField, cfg.Password),
					browser.Click(SignInButton),
				},
			},
			{State: StateAwaitIndex, Checkpoint: cfg.Checkpoints.Index},
			{
				State: StateOpeningAdminMenu,
				Interactions: []browser.Interaction{
					browser.Click(ProfileIcon),
					browser.Click(AdminMenuItem),
				},
			},
			{State: StateAwaitAdmin, Checkpoint: cfg.Checkpoints.Admin},
			{
				State:        StateOpeningManageData,
				Interactions: []browser.Interaction{browser.Click(ManageDataLink)},
			},
			{State: StateAwaitManageData, Checkpoint: cfg.Checkpoints.Data},
		},
		Download: browser.Click(BackupTrigger),
		Logout: Step{
			State: StateLoggingOut,
			Interactions: []browser.Interaction{
				browser.Click(browser.Text(cfg.UserDisplayString)),
				browser.Click(LogoutLink),
			},
		},
	}
}
