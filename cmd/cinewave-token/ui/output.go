package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/cinewave/cinewave-api/internal/auth"
)

// PromptSubject asks for the token subject interactively.
func PromptSubject() (string, error) {
	var subject string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Subject").
				Description("User id the token is issued for").
				Placeholder("3f0c9a4e-...").
				Value(&subject).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("subject is required")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(subject), nil
}

// PrintToken prints an issued token with its subject.
func PrintToken(w io.Writer, subject, token string) {
	fmt.Fprintln(w, titleStyle.Render("Token issued"))
	fmt.Fprintf(w, "  %s %s\n", subtleStyle.Render("subject:"), subject)
	fmt.Fprintln(w, token)
}

// PrintVerified prints the subject of a valid token.
func PrintVerified(w io.Writer, subject string) {
	fmt.Fprintln(w, successStyle.Render("Token valid"))
	fmt.Fprintf(w, "  %s %s\n", subtleStyle.Render("subject:"), subject)
}

// PrintClassification prints whether a request line is public or protected.
func PrintClassification(w io.Writer, method, path string, c auth.Classification) {
	style := successStyle
	if c == auth.Protected {
		style = warnStyle
	}
	fmt.Fprintf(w, "%s %s -> %s\n", method, path, style.Render(c.String()))
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+msg))
}
