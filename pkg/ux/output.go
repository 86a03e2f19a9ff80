// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AleutianAI/freet/services/freet/events"
	"github.com/AleutianAI/freet/services/freet/response"
	"github.com/charmbracelet/lipgloss"
)

// Freet palette
var (
	ColorAccent  = lipgloss.Color("#2CD7C7")
	ColorPrimary = lipgloss.Color("#20B9B4")
	ColorBorder  = lipgloss.Color("#16858E")
	ColorSlate   = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Author    lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box      lipgloss.Style
	FreetBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Author:    lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorAccent).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
	FreetBox: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorBorder).
		PaddingLeft(1),
}

// Icon provides status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconInfo    Icon = "•"
)

// Render returns the icon with its status color.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return Styles.Muted.Render(string(i))
	}
}

func statusIcon(status AlertStatus) Icon {
	switch status {
	case AlertSuccess:
		return IconSuccess
	case AlertWarning:
		return IconWarning
	case AlertError:
		return IconError
	default:
		return IconInfo
	}
}

// Printer writes Freet data to a terminal or a pipe.
type Printer struct {
	out  io.Writer
	err  io.Writer
	mode Mode
}

// NewPrinter returns a printer writing results to out and problems to errOut.
func NewPrinter(out, errOut io.Writer, mode Mode) *Printer {
	return &Printer{out: out, err: errOut, mode: mode}
}

// Mode returns the printer's output mode.
func (p *Printer) Mode() Mode {
	return p.mode
}

// Success prints a success message
func (p *Printer) Success(text string) {
	if p.mode == ModePlain {
		fmt.Fprintf(p.out, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	if p.mode == ModePlain {
		fmt.Fprintf(p.err, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(p.err, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message
func (p *Printer) Error(text string) {
	if p.mode == ModePlain {
		fmt.Fprintf(p.err, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(p.err, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Alerts prints the alerts live at now.
func (p *Printer) Alerts(state *AppState, now time.Time) {
	for _, a := range state.Alerts(now) {
		switch a.Status {
		case AlertError:
			p.Error(a.Message)
		case AlertWarning:
			p.Warning(a.Message)
		case AlertSuccess:
			p.Success(a.Message)
		default:
			fmt.Fprintln(p.out, a.Message)
		}
	}
}

// Freets prints freets in the order given.
func (p *Printer) Freets(freets []response.Freet) {
	fmt.Fprint(p.out, RenderFreets(freets, p.mode))
}

// Account prints one account.
func (p *Printer) Account(a response.Account) {
	if p.mode == ModePlain {
		fmt.Fprintf(p.out, "%s\t%s\t%s\n", a.ID, a.Username, a.DateJoined)
		return
	}
	fmt.Fprintln(p.out, Styles.Box.Render(
		Styles.Author.Render("@"+a.Username)+"\n"+Styles.Muted.Render("joined "+a.DateJoined)))
}

// Usernames prints a titled list of usernames.
func (p *Printer) Usernames(title string, names []string) {
	if p.mode == ModePlain {
		for _, n := range names {
			fmt.Fprintln(p.out, n)
		}
		return
	}
	fmt.Fprintln(p.out, Styles.Title.Render(title))
	if len(names) == 0 {
		fmt.Fprintln(p.out, Styles.Muted.Render("  (none)"))
		return
	}
	for _, n := range names {
		fmt.Fprintf(p.out, "  %s %s\n", IconInfo.Render(), n)
	}
}

// Event prints one streamed relationship event on a single line.
func (p *Printer) Event(e events.Event) {
	at := e.At.Local().Format("15:04:05")
	if p.mode == ModePlain {
		fmt.Fprintf(p.out, "%s\t%s\t%s\t%s\t%s\n", e.At.UTC().Format(time.RFC3339), e.Topic(), e.Subject, e.Object, e.Actor)
		return
	}
	line := fmt.Sprintf("%s %s %s", Styles.Muted.Render(at), Styles.Highlight.Render(e.Kind+" "+e.Op), e.Subject)
	if e.Object != "" {
		line += " " + Styles.Muted.Render("←") + " " + e.Object
	}
	if e.Actor != "" {
		line += " " + Styles.Author.Render("@"+e.Actor)
	}
	fmt.Fprintln(p.out, line)
}

// Group prints a group's members, admins and tagged freets.
func (p *Printer) Group(g response.Group) {
	if p.mode == ModePlain {
		fmt.Fprintf(p.out, "%s\t%s\n", g.ID, g.GroupUsername)
		fmt.Fprintf(p.out, "members\t%s\n", strings.Join(g.GroupMembers, ","))
		fmt.Fprintf(p.out, "admins\t%s\n", strings.Join(g.GroupAdmin, ","))
		fmt.Fprintf(p.out, "tags\t%s\n", strings.Join(g.GroupTags, ","))
		return
	}
	var b strings.Builder
	b.WriteString(Styles.Title.Render(g.GroupUsername))
	writeList(&b, "members", g.GroupMembers)
	writeList(&b, "admins", g.GroupAdmin)
	writeList(&b, "tags", g.GroupTags)
	fmt.Fprintln(p.out, Styles.Box.Render(b.String()))
}

// Contact prints a contact display.
func (p *Printer) Contact(c response.ContactDisplay) {
	fmt.Fprint(p.out, RenderContact(c, p.mode))
}

func writeList(b *strings.Builder, label string, items []string) {
	value := strings.Join(items, ", ")
	if value == "" {
		value = Styles.Muted.Render("(none)")
	}
	fmt.Fprintf(b, "\n%s %s", Styles.Muted.Render(label+":"), value)
}

// RenderFreets formats freets for mode.
func RenderFreets(freets []response.Freet, mode Mode) string {
	var b strings.Builder
	if mode == ModePlain {
		for _, f := range freets {
			fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", f.ID, f.Author, f.DateCreated, f.Content)
		}
		return b.String()
	}
	if len(freets) == 0 {
		return Styles.Muted.Render("No freets yet.") + "\n"
	}
	for _, f := range freets {
		header := Styles.Author.Render("@"+f.Author) + " " + Styles.Muted.Render(f.DateCreated)
		b.WriteString(Styles.FreetBox.Render(header + "\n" + f.Content))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderContact formats a contact display for mode. Hidden displays show
// only the username in rich mode.
func RenderContact(c response.ContactDisplay, mode Mode) string {
	if mode == ModePlain {
		return fmt.Sprintf("%s\t%t\t%s\t%s\t%s\t%s\n", c.Username, c.ContactInformationDisplayed,
			c.ContactNumber, c.ContactEmail, c.ContactWebsite, c.ContactAddress)
	}
	var b strings.Builder
	b.WriteString(Styles.Author.Render("@" + c.Username))
	if !c.ContactInformationDisplayed {
		b.WriteString("\n" + Styles.Muted.Render("Contact information is hidden."))
		return Styles.Box.Render(b.String()) + "\n"
	}
	for _, row := range [][2]string{
		{"phone", c.ContactNumber},
		{"email", c.ContactEmail},
		{"website", c.ContactWebsite},
		{"address", c.ContactAddress},
	} {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s", Styles.Muted.Render(row[0]+":"), row[1])
	}
	return Styles.Box.Render(b.String()) + "\n"
}

// RenderAlerts formats live alerts one per line.
func RenderAlerts(alerts []Alert) string {
	var b strings.Builder
	for _, a := range alerts {
		text := a.Message
		switch a.Status {
		case AlertSuccess:
			text = Styles.Success.Render(text)
		case AlertWarning:
			text = Styles.Warning.Render(text)
		case AlertError:
			text = Styles.Error.Render(text)
		}
		fmt.Fprintf(&b, "%s %s\n", statusIcon(a.Status).Render(), text)
	}
	return b.String()
}
