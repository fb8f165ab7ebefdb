package browser

import (
	"context"
	"time"
)

// LaunchOptions configures a new browser session.
type LaunchOptions struct {
	Headless bool

	// Timeout bounds the engine start.
	Timeout time.Duration

	// ActionTimeout is the implicit wait Act allows for its element.
	ActionTimeout time.Duration
}

// DefaultActionTimeout is used when LaunchOptions.ActionTimeout is zero.
const DefaultActionTimeout = 10 * time.Second

// Launcher starts isolated browser sessions.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one browser context with a single page. A Session belongs to
// exactly one workflow run.
type Session interface {
	// Goto initiates navigation to url.
	Goto(ctx context.Context, url string) error

	// Act resolves the interaction's locator and performs its action.
	Act(ctx context.Context, in Interaction) error

	// WaitForCheckpoint blocks until the page URL matches checkpoint or timeout elapses.
	WaitForCheckpoint(ctx context.Context, checkpoint string, timeout time.Duration) error

	// ExpectDownload performs trigger and waits for the download it starts.
	ExpectDownload(ctx context.Context, trigger Interaction, timeout time.Duration) (Download, error)

	// Close releases the page, context, engine and temporary downloads.
	// It is idempotent and may be called concurrently with any other method.
	Close() error
}

// Download is a file transfer started by ExpectDownload.
type Download interface {
	// Path blocks until the transfer completes and returns the temporary file path.
	Path() (string, error)

	// SuggestedFilename is the name the server proposed for the file.
	SuggestedFilename() string
}
