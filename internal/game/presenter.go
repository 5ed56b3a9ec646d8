package game

import "github.com/glebk/rehab-clicker/internal/domain"

// Presenter renders a game. Methods are called on the game's logical thread
// and must not call back into the Game.
type Presenter interface {
	Render(snapshot domain.Snapshot)
	ShowEffect(substance domain.Substance)
	PlayTick(pulse int)
	ClearEffect()
	ShowRehabPrompt(reference string)
	HideRehabPrompt()
	ShowRehabRetry()
	ShowRehabSuccess()
	ShowTransientWarning(text string)
}
