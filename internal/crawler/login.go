package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/v0xg/menusweep/internal/ui"
)

// Credentials are typed into the login form.
type Credentials struct {
	Username string
	Password string
}

// LoginForm locates the login form controls.
type LoginForm struct {
	UserInput      string
	PasswordInput  string
	ButtonSelector string
	ButtonLabel    string
}

// Login fills the form, presses the login button and waits for the
// network to settle.
func (b *Browser) Login(ctx context.Context, form LoginForm, creds Credentials, idle time.Duration) error {
	if err := b.fill(ctx, form.UserInput, creds.Username); err != nil {
		return fmt.Errorf("fill user name: %w", err)
	}
	if err := b.fill(ctx, form.PasswordInput, creds.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	buttons, err := ui.FindByLabel(ctx, b, form.ButtonSelector, form.ButtonLabel)
	if err != nil {
		return fmt.Errorf("find login button: %w", err)
	}
	if len(buttons) == 0 {
		return fmt.Errorf("login button %q: %w", form.ButtonLabel, ui.ErrMissingControl)
	}
	if err := b.Click(ctx, buttons[0]); err != nil {
		return fmt.Errorf("press login: %w", err)
	}
	return b.WaitIdle(ctx, idle)
}

func (b *Browser) fill(ctx context.Context, selector, value string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	el, err := b.page.Context(ctx).Element(selector)
	if err != nil {
		return classify(err)
	}
	if err := el.SelectAllText(); err != nil {
		return classify(err)
	}
	return classify(el.Input(value))
}
