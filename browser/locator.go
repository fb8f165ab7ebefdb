package browser

import (
	"fmt"
	"strconv"
)

// Strategy selects how a Locator resolves its target element.
type Strategy int

const (
	ByPlaceholder Strategy = iota + 1
	ByText
	BySelector
)

func (s Strategy) String() string {
	switch s {
	case ByPlaceholder:
		return "placeholder"
	case ByText:
		return "text"
	case BySelector:
		return "selector"
	}
	return "unknown"
}

// Locator is a declarative element descriptor. Build one with Placeholder,
// Text or CSS and narrow it with Nth or First when the page repeats a match.
type Locator struct {
	Strategy Strategy
	Value    string
	Index    int
	Indexed  bool
}

// Placeholder matches an input by its placeholder attribute.
func Placeholder(text string) Locator {
	return Locator{Strategy: ByPlaceholder, Value: text}
}

// Text matches an element containing text.
func Text(text string) Locator {
	return Locator{Strategy: ByText, Value: text}
}

// CSS matches elements with a CSS-like playwright selector.
func CSS(selector string) Locator {
	return Locator{Strategy: BySelector, Value: selector}
}

// Nth selects the i-th (zero based) match.
func (l Locator) Nth(i int) Locator {
	l.Index = i
	l.Indexed = true
	return l
}

// First selects the first match.
func (l Locator) First() Locator {
	return l.Nth(0)
}

// Validate reports whether the descriptor can be resolved at all.
func (l Locator) Validate() error {
	switch l.Strategy {
	case ByPlaceholder, ByText, BySelector:
	default:
		return fmt.Errorf("invalid locator strategy %d", int(l.Strategy))
	}
	if l.Value == "" {
		return fmt.Errorf("%s locator has an empty value", l.Strategy)
	}
	if l.Indexed && l.Index < 0 {
		return fmt.Errorf("%s locator has negative index %d", l.Strategy, l.Index)
	}
	return nil
}

// Query renders the playwright selector for the descriptor, without the index.
func (l Locator) Query() string {
	switch l.Strategy {
	case ByPlaceholder:
		return "[placeholder=" + strconv.Quote(l.Value) + "]"
	case ByText:
		return "text=" + l.Value
	default:
		return l.Value
	}
}

func (l Locator) String() string {
	if l.Indexed {
		return fmt.Sprintf("%s >> nth=%d", l.Query(), l.Index)
	}
	return l.Query()
}

// Action is what Act does with a resolved element.
type Action string

const (
	ActionClick Action = "click"
	ActionFill  Action = "fill"
)

// Interaction pairs a locator with an action.
type Interaction struct {
	Target Locator
	Action Action
	Value  string
}

// Click builds a click interaction.
func Click(target Locator) Interaction {
	return Interaction{Target: target, Action: ActionClick}
}

// Fill builds a fill interaction.
func Fill(target Locator, value string) Interaction {
	return Interaction{Target: target, Action: ActionFill, Value: value}
}

// Validate checks the interaction before it reaches the page.
func (in Interaction) Validate() error {
	if err := in.Target.Validate(); err != nil {
		return err
	}
	switch in.Action {
	case ActionClick, ActionFill:
		return nil
	}
	return fmt.Errorf("unsupported action %q", in.Action)
}

// String never includes the fill value; fills carry credentials.
func (in Interaction) String() string {
	return string(in.Action) + " " + in.Target.String()
}
