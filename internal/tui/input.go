package tui

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/glebk/rehab-clicker/internal/game"
)

// guardedInput is an input field that only accepts typed keys. Clipboard
// shortcuts and mouse tricks are reported instead of handled.
type guardedInput struct {
	*tview.InputField
	onViolation func(game.Violation)
	dragging    bool
}

func newGuardedInput(onViolation func(game.Violation)) *guardedInput {
	return &guardedInput{
		InputField:  tview.NewInputField(),
		onViolation: onViolation,
	}
}

func (g *guardedInput) report(v game.Violation) {
	if g.onViolation != nil {
		g.onViolation(v)
	}
}

// focusSelf keeps focus on the wrapper when the inner field asks for it
func (g *guardedInput) focusSelf(setFocus func(tview.Primitive)) func(tview.Primitive) {
	return func(p tview.Primitive) {
		if p == g.InputField {
			p = g
		}
		setFocus(p)
	}
}

func (g *guardedInput) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	inner := g.InputField.InputHandler()
	return func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if v, ok := clipboardViolation(event); ok {
			g.report(v)
			return
		}
		inner(event, g.focusSelf(setFocus))
	}
}

func (g *guardedInput) PasteHandler() func(text string, setFocus func(p tview.Primitive)) {
	return func(string, func(p tview.Primitive)) {
		g.report(game.ViolationPaste)
	}
}

func (g *guardedInput) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	inner := g.InputField.MouseHandler()
	return func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		x, y := event.Position()
		if !g.InRect(x, y) {
			return false, nil
		}

		switch action {
		case tview.MouseRightClick:
			g.report(game.ViolationContextMenu)
			return true, nil
		case tview.MouseRightDown, tview.MouseRightUp, tview.MouseRightDoubleClick:
			return true, nil
		case tview.MouseMove:
			if event.Buttons()&tcell.Button1 != 0 {
				if !g.dragging {
					g.dragging = true
					g.report(game.ViolationDrag)
				}
				return true, nil
			}
		case tview.MouseLeftUp:
			g.dragging = false
		}

		consumed, capture := inner(action, event, g.focusSelf(setFocus))
		if capture == g.InputField {
			capture = g
		}
		return consumed, capture
	}
}

// clipboardViolation classifies copy, cut and paste shortcuts
func clipboardViolation(event *tcell.EventKey) (game.Violation, bool) {
	switch {
	case ctrlKey(event, tcell.KeyCtrlV, 'v'):
		return game.ViolationPaste, true
	case ctrlKey(event, tcell.KeyCtrlX, 'x'):
		return game.ViolationCut, true
	case ctrlKey(event, tcell.KeyCtrlC, 'c'), ctrlKey(event, tcell.KeyCtrlQ, 'q'):
		return game.ViolationCopy, true
	case event.Key() == tcell.KeyInsert && event.Modifiers()&tcell.ModShift != 0:
		return game.ViolationPaste, true
	case event.Key() == tcell.KeyInsert && event.Modifiers()&tcell.ModCtrl != 0:
		return game.ViolationCopy, true
	case event.Key() == tcell.KeyDelete && event.Modifiers()&tcell.ModShift != 0:
		return game.ViolationCut, true
	}
	return "", false
}

// ctrlKey matches both the legacy control key and a rune with the Ctrl modifier
func ctrlKey(event *tcell.EventKey, key tcell.Key, r rune) bool {
	if event.Key() == key {
		return true
	}
	return event.Key() == tcell.KeyRune &&
		event.Modifiers()&tcell.ModCtrl != 0 &&
		unicode.ToLower(event.Rune()) == r
}
